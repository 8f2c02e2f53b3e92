// Package pipeline orchestrates ingestion: normalize raw extractions into
// mentions, resolve them to canonical restaurants, re-aggregate signals,
// recompute scores, enrich from the mapping provider, and refresh
// embeddings. Mentions are processed concurrently on a worker pool; one bad
// mention never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/bellybuzz/bellybuzz/internal/embedding"
	"github.com/bellybuzz/bellybuzz/internal/normalizer"
	"github.com/bellybuzz/bellybuzz/internal/places"
	"github.com/bellybuzz/bellybuzz/internal/resolver"
	"github.com/bellybuzz/bellybuzz/internal/scoring"
	"github.com/bellybuzz/bellybuzz/internal/signals"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

const (
	defaultWorkers = 4

	// maxRefreshRetries bounds optimistic retries when writing aggregates.
	maxRefreshRetries = 3
)

// Item is one unit of ingestion work: an extraction plus the metadata of
// the content it came from.
type Item struct {
	Extraction normalizer.Extraction
	Meta       normalizer.SourceMeta

	// Lat and Lng carry an extracted location hint, when one exists.
	Lat *float64
	Lng *float64
}

// Stats summarizes one ingestion run.
type Stats struct {
	Processed         int64 // mentions stored and fully resolved
	Dropped           int64 // invalid extractions, logged and skipped
	Created           int64 // new restaurant entities seeded
	Merged            int64 // mentions merged into existing restaurants
	Failed            int64 // mentions that errored past the normalizer
	EmbeddingsPending int64 // restaurants left without a fresh vector
}

// Config assembles the pipeline's collaborators.
type Config struct {
	Store   storage.Store
	Weights scoring.SourceWeights
	Places  places.Client      // optional; nil disables enrichment
	Indexer *embedding.Indexer // optional; nil disables embedding refresh
	City    string             // city attributed to ingested mentions
	Workers int                // concurrent mention workers (default 4)
}

// Pipeline runs ingestion batches.
type Pipeline struct {
	store      storage.Store
	normalizer *normalizer.Normalizer
	resolver   *resolver.Resolver
	weights    scoring.SourceWeights
	places     places.Client
	indexer    *embedding.Indexer
	city       string
	pool       *ants.Pool
}

// New creates a Pipeline and its worker pool. Call Close when done.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline requires a store")
	}
	if cfg.City == "" {
		return nil, fmt.Errorf("pipeline requires a city")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	return &Pipeline{
		store:      cfg.Store,
		normalizer: normalizer.New(cfg.Store),
		resolver:   resolver.New(cfg.Store, nil),
		weights:    cfg.Weights,
		places:     cfg.Places,
		indexer:    cfg.Indexer,
		city:       cfg.City,
		pool:       pool,
	}, nil
}

// Close releases the worker pool.
func (p *Pipeline) Close() {
	p.pool.Release()
}

// Run ingests a batch of items concurrently and returns aggregate stats.
// Individual failures are counted and logged, never propagated: the batch
// always runs to completion.
func (p *Pipeline) Run(ctx context.Context, items []Item) Stats {
	var stats Stats
	var wg sync.WaitGroup

	start := time.Now()
	for i := range items {
		item := items[i]
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.processOne(ctx, item, &stats)
		})
		if err != nil {
			// Pool is released or overloaded; run inline rather than drop.
			p.processOne(ctx, item, &stats)
			wg.Done()
		}
	}
	wg.Wait()

	log.Printf("pipeline: batch done in %s: processed=%d dropped=%d created=%d merged=%d failed=%d pending_embeddings=%d",
		time.Since(start).Round(time.Millisecond),
		stats.Processed, stats.Dropped, stats.Created, stats.Merged, stats.Failed, stats.EmbeddingsPending)
	return stats
}

func (p *Pipeline) processOne(ctx context.Context, item Item, stats *Stats) {
	mention, err := p.normalizer.Normalize(ctx, item.Extraction, item.Meta)
	if err != nil {
		if errors.Is(err, normalizer.ErrExtractionInvalid) {
			normalizer.LogDropped(item.Meta, err)
			atomic.AddInt64(&stats.Dropped, 1)
			return
		}
		log.Printf("pipeline: normalizing %s: %v", item.Meta.SourceURL, err)
		atomic.AddInt64(&stats.Failed, 1)
		return
	}

	hint := resolver.Hint{City: p.city, Lat: item.Lat, Lng: item.Lng}
	result, err := p.resolver.Resolve(ctx, mention, hint)
	if err != nil {
		log.Printf("pipeline: resolving %q: %v", mention.RestaurantName, err)
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	if result.Created {
		atomic.AddInt64(&stats.Created, 1)
	} else {
		atomic.AddInt64(&stats.Merged, 1)
	}

	// Attach the mention to its entity before re-aggregating, so the
	// aggregation pass sees it. The normalizer carries over any previous
	// attachment, so a re-ingested mention with a corrected name can move
	// between entities here.
	previousID := mention.RestaurantID
	if previousID != result.Restaurant.ID {
		if err := p.store.ReassignRestaurant(ctx, mention.SourceURL, result.Restaurant.ID); err != nil {
			log.Printf("pipeline: attaching mention %s: %v", mention.SourceURL, err)
			atomic.AddInt64(&stats.Failed, 1)
			return
		}
		mention.RestaurantID = result.Restaurant.ID
	}

	if err := p.Refresh(ctx, result.Restaurant.ID); err != nil {
		log.Printf("pipeline: refreshing %s: %v", result.Restaurant.Slug, err)
		atomic.AddInt64(&stats.Failed, 1)
		return
	}

	// A moved mention detaches from its former entity; rebuild that one too
	// so its aggregates never count mentions it no longer owns.
	if previousID != "" && previousID != result.Restaurant.ID {
		if err := p.Refresh(ctx, previousID); err != nil {
			log.Printf("pipeline: refreshing detached restaurant %s: %v", previousID, err)
			atomic.AddInt64(&stats.Failed, 1)
			return
		}
	}

	if p.indexer != nil {
		current, err := p.store.Get(ctx, result.Restaurant.ID)
		if err == nil {
			err = p.indexer.Index(ctx, current)
		}
		if err != nil {
			// Embedding is best-effort: the restaurant stays queryable
			// through structured filters until the next run.
			if !errors.Is(err, embedding.ErrEmbeddingUnavailable) {
				log.Printf("pipeline: indexing %s: %v", result.Restaurant.Slug, err)
			}
			atomic.AddInt64(&stats.EmbeddingsPending, 1)
		}
	}

	atomic.AddInt64(&stats.Processed, 1)
}

// Refresh recomputes a restaurant's aggregates and scores from its full
// mention set and persists them, retrying on optimistic conflicts. Scores
// are always rebuilt from the mention log, never incremented in place.
func (p *Pipeline) Refresh(ctx context.Context, restaurantID string) error {
	var lastErr error
	for attempt := 0; attempt < maxRefreshRetries; attempt++ {
		restaurant, err := p.store.Get(ctx, restaurantID)
		if err != nil {
			return fmt.Errorf("loading restaurant: %w", err)
		}

		mentions, err := p.store.ListByRestaurant(ctx, restaurantID)
		if err != nil {
			return fmt.Errorf("listing mentions: %w", err)
		}

		p.enrich(ctx, restaurant)

		sig := signals.Compute(mentions)
		sig.Apply(restaurant)

		scores := scoring.Compute(mentions, restaurant.Rating, p.weights, time.Now())
		scores.Apply(restaurant)

		err = p.store.Update(ctx, restaurant)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("storing aggregates: %w", err)
		}
		lastErr = err
	}
	return fmt.Errorf("storing aggregates: exhausted %d retries: %w", maxRefreshRetries, lastErr)
}

// enrich fills missing location and rating fields from the mapping
// provider. Enrichment is authoritative for geography: fields it has set
// are never overwritten, and restaurants with a place ID are not looked up
// again. Failures are logged and skipped.
func (p *Pipeline) enrich(ctx context.Context, r *types.Restaurant) {
	if p.places == nil || r.PlaceID != "" {
		return
	}

	place, err := p.places.FindPlace(ctx, r.Name, r.City)
	if err != nil {
		if !errors.Is(err, places.ErrPlaceNotFound) {
			log.Printf("pipeline: enriching %s: %v", r.Slug, err)
		}
		return
	}

	r.PlaceID = place.PlaceID
	if r.Address == "" {
		r.Address = place.Address
	}
	if r.Neighborhood == "" {
		r.Neighborhood = place.Neighborhood
	}
	if !r.HasLocation() {
		r.Latitude = place.Lat
		r.Longitude = place.Lng
	}
	if r.Rating == 0 && place.Rating != nil {
		r.Rating = *place.Rating
	}
	if r.ReviewsCount == 0 {
		r.ReviewsCount = place.ReviewsCount
	}
	if r.MapsURL == "" {
		r.MapsURL = place.MapsURL
	}
	if r.PhotoURL == "" {
		r.PhotoURL = place.PhotoURL
	}
	if r.PriceTier == 0 && place.PriceLevel > 0 {
		r.PriceTier = normalizer.PriceTier("", place.PriceLevel)
	}
}
