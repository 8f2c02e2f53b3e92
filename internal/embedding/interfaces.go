// Package embedding turns restaurant records into vectors for semantic
// search. It owns the document representation, the content fingerprint that
// decides when a vector is stale, and the clients that talk to embedding
// providers. Embedding is best-effort: ingestion never fails because a
// provider is down, the restaurant is simply left pending until the next run.
package embedding

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable is returned when the provider cannot produce a
// vector right now (circuit open, rate limited out of budget, or the
// provider kept failing through every retry). Callers treat it as a
// temporary condition, not a data error.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// Generator produces a fixed-length embedding vector for the given text.
type Generator interface {
	// Embed returns the vector for text, or an error. A nil error always
	// comes with a non-empty vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model identifies the provider model, stored alongside each vector so
	// that vectors from different models are never compared.
	Model() string
}
