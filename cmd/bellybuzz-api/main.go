// Command bellybuzz-api serves the BellyBuzz read API: ranked search,
// trending, restaurant detail.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bellybuzz/bellybuzz/internal/config"
	"github.com/bellybuzz/bellybuzz/internal/embedding"
	"github.com/bellybuzz/bellybuzz/internal/query"
	"github.com/bellybuzz/bellybuzz/internal/server"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/internal/storage/postgres"
	"github.com/bellybuzz/bellybuzz/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("creating embedding generator: %v", err)
	}
	ranker := query.New(store, generator)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := server.Start(ctx, cfg, store, ranker); err != nil {
		log.Fatalf("starting server: %v", err)
	}

	<-ctx.Done()
	log.Println("shutting down")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Engine == "postgres" {
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	}
	return sqlite.NewStore(cfg.Storage.SQLitePath)
}

// newGenerator builds the query-side embedding generator, or nil when
// semantic search is disabled.
func newGenerator(cfg *config.Config) (embedding.Generator, error) {
	switch cfg.Embedding.Provider {
	case "none":
		return nil, nil
	case "openai":
		gen, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey: cfg.Embedding.OpenAIAPIKey,
			Model:  cfg.Embedding.OpenAIModel,
		})
		if err != nil {
			return nil, err
		}
		return embedding.NewRateLimited(gen, cfg.Embedding.RequestsPerSecond, 1), nil
	default:
		gen := embedding.NewOllamaEmbedder(embedding.OllamaConfig{
			BaseURL: cfg.Embedding.OllamaURL,
			Model:   cfg.Embedding.OllamaModel,
		})
		return embedding.NewRateLimited(gen, cfg.Embedding.RequestsPerSecond, 1), nil
	}
}
