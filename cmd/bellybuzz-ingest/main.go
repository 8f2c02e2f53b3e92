// Command bellybuzz-ingest runs the ingestion pipeline over a batch of
// extraction results, either once or on a cron schedule.
//
// The input file is a JSON array of extraction items (see the Input type).
// Scrapers and the extraction service live outside this repository; their
// output is what this command consumes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bellybuzz/bellybuzz/internal/config"
	"github.com/bellybuzz/bellybuzz/internal/embedding"
	"github.com/bellybuzz/bellybuzz/internal/normalizer"
	"github.com/bellybuzz/bellybuzz/internal/pipeline"
	"github.com/bellybuzz/bellybuzz/internal/places"
	"github.com/bellybuzz/bellybuzz/internal/scoring"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/internal/storage/postgres"
	"github.com/bellybuzz/bellybuzz/internal/storage/sqlite"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// Input is one extraction result in the input file.
type Input struct {
	Name           string             `json:"name"`
	Sentiment      *float64           `json:"sentiment,omitempty"` // -1..1
	SentimentLabel string             `json:"sentiment_label,omitempty"`
	Aspects        map[string]float64 `json:"aspects,omitempty"`
	Cuisines       []string           `json:"cuisines,omitempty"`
	Dishes         []string           `json:"dishes,omitempty"`
	PriceHint      string             `json:"price_hint,omitempty"`
	Vibe           string             `json:"vibe,omitempty"`

	SourceType   string     `json:"source_type"`
	SourceURL    string     `json:"source_url"`
	Title        string     `json:"title,omitempty"`
	RawText      string     `json:"raw_text,omitempty"`
	Author       string     `json:"author,omitempty"`
	Subreddit    string     `json:"subreddit,omitempty"`
	Upvotes      int        `json:"upvotes,omitempty"`
	CommentCount int        `json:"comment_count,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "path to a JSON file of extraction items (required)")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	weights := scoring.DefaultSourceWeights()
	if cfg.Ingest.WeightsPath != "" {
		weights, err = scoring.LoadSourceWeights(cfg.Ingest.WeightsPath)
		if err != nil {
			log.Fatalf("loading source weights: %v", err)
		}
	}

	p, err := pipeline.New(pipeline.Config{
		Store:   store,
		Weights: weights,
		Places:  newPlacesClient(cfg),
		Indexer: newIndexer(cfg, store),
		City:    cfg.Ingest.City,
		Workers: cfg.Ingest.Workers,
	})
	if err != nil {
		log.Fatalf("creating pipeline: %v", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		items, err := loadItems(*inputPath)
		if err != nil {
			log.Printf("loading input: %v", err)
			return
		}
		p.Run(ctx, items)
	}

	if cfg.Ingest.Schedule == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Ingest.Schedule, run); err != nil {
		log.Fatalf("invalid schedule %q: %v", cfg.Ingest.Schedule, err)
	}
	c.Start()
	log.Printf("ingest scheduled: %s", cfg.Ingest.Schedule)

	<-ctx.Done()
	<-c.Stop().Done()
}

func loadItems(path string) ([]pipeline.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var inputs []Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, err
	}

	items := make([]pipeline.Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, pipeline.Item{
			Extraction: normalizer.Extraction{
				Name:           in.Name,
				Sentiment:      in.Sentiment,
				SentimentLabel: types.SentimentLabel(in.SentimentLabel),
				Aspects:        in.Aspects,
				Cuisines:       in.Cuisines,
				Dishes:         in.Dishes,
				PriceHint:      in.PriceHint,
				Vibe:           in.Vibe,
			},
			Meta: normalizer.SourceMeta{
				SourceType:   types.SourceType(in.SourceType),
				SourceURL:    in.SourceURL,
				Title:        in.Title,
				RawText:      in.RawText,
				Author:       in.Author,
				Subreddit:    in.Subreddit,
				Upvotes:      in.Upvotes,
				CommentCount: in.CommentCount,
				PostedAt:     in.PostedAt,
			},
			Lat: in.Lat,
			Lng: in.Lng,
		})
	}
	return items, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Engine == "postgres" {
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	}
	return sqlite.NewStore(cfg.Storage.SQLitePath)
}

func newPlacesClient(cfg *config.Config) places.Client {
	if cfg.Places.APIKey == "" {
		return nil
	}
	client, err := places.NewHTTPClient(places.Config{
		BaseURL: cfg.Places.BaseURL,
		APIKey:  cfg.Places.APIKey,
	})
	if err != nil {
		log.Printf("places client disabled: %v", err)
		return nil
	}
	return client
}

func newIndexer(cfg *config.Config, store storage.Store) *embedding.Indexer {
	var gen embedding.Generator
	switch cfg.Embedding.Provider {
	case "none":
		return nil
	case "openai":
		g, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey: cfg.Embedding.OpenAIAPIKey,
			Model:  cfg.Embedding.OpenAIModel,
		})
		if err != nil {
			log.Printf("embedding disabled: %v", err)
			return nil
		}
		gen = g
	default:
		gen = embedding.NewOllamaEmbedder(embedding.OllamaConfig{
			BaseURL: cfg.Embedding.OllamaURL,
			Model:   cfg.Embedding.OllamaModel,
		})
	}
	return embedding.NewIndexer(store, embedding.NewRateLimited(gen, cfg.Embedding.RequestsPerSecond, 1))
}
