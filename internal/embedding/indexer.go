package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// BuildDocument renders the searchable text representation of a restaurant:
// vibe, cuisines and dishes first since those carry the semantic weight of
// queries like "cozy date night ramen", then name and locality.
func BuildDocument(r *types.Restaurant) string {
	var parts []string
	if r.Vibe != "" {
		parts = append(parts, r.Vibe)
	}
	parts = append(parts, r.CuisineTags...)
	parts = append(parts, r.RecommendedDishes...)
	if r.Name != "" {
		parts = append(parts, r.Name)
	}
	if r.Neighborhood != "" {
		parts = append(parts, r.Neighborhood)
	}
	if r.City != "" {
		parts = append(parts, r.City)
	}

	doc := strings.TrimSpace(strings.Join(parts, " "))
	if doc == "" {
		doc = "restaurant"
	}
	return doc
}

// Fingerprint hashes the document plus model name. A stored vector is stale
// exactly when the stored fingerprint differs from the current one, so
// unchanged restaurants are never re-embedded.
func Fingerprint(document, model string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + document))
	return hex.EncodeToString(sum[:])
}

// Indexer keeps restaurant embeddings in sync with their content.
type Indexer struct {
	store       storage.RestaurantStore
	generator   Generator
	maxAttempts int
	baseDelay   time.Duration
}

// NewIndexer creates an Indexer with default retry settings.
func NewIndexer(store storage.RestaurantStore, generator Generator) *Indexer {
	return &Indexer{
		store:       store,
		generator:   generator,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// Index ensures r has an up-to-date embedding. A restaurant whose content
// fingerprint matches the stored one is left alone. When the provider is
// unavailable after retries, Index returns ErrEmbeddingUnavailable and the
// restaurant keeps its previous vector (or stays pending with none); it
// remains fully queryable through structured filters either way.
//
// r is updated in place on success so callers see the new vector without a
// re-read.
func (x *Indexer) Index(ctx context.Context, r *types.Restaurant) error {
	document := BuildDocument(r)
	fingerprint := Fingerprint(document, x.generator.Model())

	if r.HasEmbedding() && r.ContentFingerprint == fingerprint {
		return nil
	}

	var vector []float32
	err := retryWithBackoff(ctx, func() error {
		vec, err := x.generator.Embed(ctx, document)
		if err != nil {
			return err
		}
		vector = vec
		return nil
	}, x.maxAttempts, x.baseDelay)
	if err != nil {
		log.Printf("embedding: leaving restaurant %s pending: %v", r.Slug, err)
		return fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	if err := x.store.UpdateEmbedding(ctx, r.ID, vector, x.generator.Model(), fingerprint); err != nil {
		return fmt.Errorf("storing embedding for %s: %w", r.ID, err)
	}

	r.Embedding = vector
	r.EmbeddingModel = x.generator.Model()
	r.ContentFingerprint = fingerprint
	return nil
}
