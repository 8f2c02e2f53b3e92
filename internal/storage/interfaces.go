// Package storage provides composable storage interfaces for BellyBuzz.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. Two backends exist:
// PostgreSQL (lib/pq + pgvector, production) and SQLite (modernc.org/sqlite,
// embedded, used for development and tests).
package storage

import (
	"context"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// MentionStore persists the append-only mention log.
type MentionStore interface {
	// Upsert creates or updates a mention keyed by SourceURL. Re-ingesting
	// the same URL updates the existing record in place and preserves its ID,
	// so repeated ingestion runs are idempotent on mention_count.
	Upsert(ctx context.Context, mention *types.Mention) error

	// GetBySourceURL retrieves a mention by its source URL.
	// Returns ErrNotFound if no mention with that URL exists.
	GetBySourceURL(ctx context.Context, url string) (*types.Mention, error)

	// ListByRestaurant returns every mention resolved to the given
	// restaurant, ordered by posted time descending. This is the
	// authoritative input for signal aggregation.
	ListByRestaurant(ctx context.Context, restaurantID string) ([]types.Mention, error)

	// CountByRestaurant returns the number of mentions attached to a restaurant.
	CountByRestaurant(ctx context.Context, restaurantID string) (int, error)

	// ReassignRestaurant attaches the mention with the given source URL to a
	// restaurant, replacing any previous attachment. Returns ErrNotFound when
	// no mention with that URL exists.
	ReassignRestaurant(ctx context.Context, sourceURL, restaurantID string) error
}

// RestaurantStore persists canonical restaurant entities.
type RestaurantStore interface {
	// Create inserts a new restaurant. The slug must already be unique;
	// use SlugExists to probe for collisions before creating.
	Create(ctx context.Context, r *types.Restaurant) error

	// Get retrieves a restaurant by ID.
	// Returns ErrNotFound if the restaurant doesn't exist.
	Get(ctx context.Context, id string) (*types.Restaurant, error)

	// GetBySlug retrieves a restaurant by its slug.
	GetBySlug(ctx context.Context, slug string) (*types.Restaurant, error)

	// Update writes identity fields, aggregates and derived scores using
	// optimistic concurrency: the write only succeeds when the stored
	// version matches r.Version, and increments the version on success.
	// Returns ErrConflict when a concurrent writer got there first.
	Update(ctx context.Context, r *types.Restaurant) error

	// UpdateEmbedding stores the vector, model name and content fingerprint
	// for a restaurant. Embedding writes bypass version checking: the vector
	// is derived data and last-writer-wins is safe.
	UpdateEmbedding(ctx context.Context, id string, embedding []float32, model, fingerprint string) error

	// ListByCity returns all restaurants in a city. Used by the entity
	// resolver as the candidate set for name matching.
	ListByCity(ctx context.Context, city string) ([]types.Restaurant, error)

	// List returns restaurants matching the structured filters, ordered by
	// the requested sort field with restaurant ID as the stable tie-break.
	List(ctx context.Context, f Filters) (*PaginatedResult[types.Restaurant], error)

	// SlugExists reports whether a slug is already taken.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// ListCuisines returns the distinct cuisine tags across restaurants,
	// lower-cased and sorted. An empty city means all cities.
	ListCuisines(ctx context.Context, city string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// VectorSearcher provides semantic candidate retrieval over restaurant
// embeddings. Restaurants without a stored vector never appear in results.
type VectorSearcher interface {
	// VectorSearch returns up to limit restaurants passing the structured
	// filters, ordered by cosine similarity to the query vector (most
	// similar first).
	VectorSearch(ctx context.Context, query []float32, f Filters, limit int) ([]types.Restaurant, error)
}

// Store combines the full storage contract implemented by both backends.
type Store interface {
	MentionStore
	RestaurantStore
	VectorSearcher
}
