// Package query ranks restaurants for the search surface. Free-text
// queries are embedded and matched against stored vectors, constrained by
// the structured filters; when no query text is given, or the embedding
// provider is down, ranking degrades to pure structured search instead of
// failing the request.
package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bellybuzz/bellybuzz/internal/embedding"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

const (
	// overfetchMultiplier and minCandidates size the vector candidate pool
	// relative to the requested page, so post-pagination still has depth.
	overfetchMultiplier = 3
	minCandidates       = 30

	// embedTimeout bounds how long a search request waits on the embedding
	// provider before degrading to structured ranking.
	embedTimeout = 2 * time.Second
)

// Request is one search invocation.
type Request struct {
	// Query is free text ("cozy date night ramen"). Empty means structured
	// search only.
	Query string

	// Filters are the structured predicates, respected exactly in both
	// search modes.
	Filters storage.Filters
}

// Response is a ranked result page.
type Response struct {
	Restaurants []types.Restaurant `json:"restaurants"`
	Total       int                `json:"total"`
	HasMore     bool               `json:"has_more"`

	// Semantic reports whether vector ranking was applied. False when the
	// query was empty or the ranker degraded to structured search.
	Semantic bool `json:"semantic"`
}

// Ranker serves search requests against the restaurant store.
type Ranker struct {
	store     storage.Store
	generator embedding.Generator // nil disables semantic ranking
}

// New creates a Ranker. A nil generator limits it to structured search.
func New(store storage.Store, generator embedding.Generator) *Ranker {
	return &Ranker{store: store, generator: generator}
}

// Search runs one ranked query. Results always respect every active filter;
// ordering is deterministic for identical inputs (similarity, then
// restaurant ID in vector mode; sort field, then ID in structured mode).
func (r *Ranker) Search(ctx context.Context, req Request) (*Response, error) {
	req.Filters.Normalize()

	text := strings.TrimSpace(req.Query)
	if text == "" || r.generator == nil {
		return r.structured(ctx, req.Filters)
	}

	vector, err := r.embedQuery(ctx, text)
	if err != nil {
		log.Printf("query: embedding %q failed, using structured ranking: %v", text, err)
		return r.structured(ctx, req.Filters)
	}

	candidateLimit := req.Filters.Offset + req.Filters.Limit*overfetchMultiplier
	if candidateLimit < minCandidates {
		candidateLimit = minCandidates
	}

	candidates, err := r.store.VectorSearch(ctx, vector, req.Filters, candidateLimit)
	if err != nil {
		if errors.Is(err, storage.ErrVectorSearchUnavailable) {
			return r.structured(ctx, req.Filters)
		}
		return nil, fmt.Errorf("query: vector search: %w", err)
	}

	total, err := r.countMatching(ctx, req.Filters)
	if err != nil {
		return nil, err
	}

	// Paginate the similarity-ordered candidates.
	page := candidates
	if req.Filters.Offset >= len(page) {
		page = nil
	} else {
		page = page[req.Filters.Offset:]
	}
	if len(page) > req.Filters.Limit {
		page = page[:req.Filters.Limit]
	}

	return &Response{
		Restaurants: page,
		Total:       total,
		HasMore:     req.Filters.Offset+len(page) < total,
		Semantic:    true,
	}, nil
}

// Trending returns restaurants currently flagged as trending, strongest
// viral signal first.
func (r *Ranker) Trending(ctx context.Context, city string, limit int) ([]types.Restaurant, error) {
	if limit < 1 {
		limit = 10
	}

	f := storage.Filters{
		City:   city,
		SortBy: types.SortByViral,
		// Trending is a small subset; over-fetch so the flag filter below
		// still fills the page.
		Limit: 100,
	}
	result, err := r.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query: listing for trending: %w", err)
	}

	trending := make([]types.Restaurant, 0, limit)
	for _, restaurant := range result.Items {
		if !restaurant.IsTrending {
			continue
		}
		trending = append(trending, restaurant)
		if len(trending) == limit {
			break
		}
	}
	return trending, nil
}

func (r *Ranker) structured(ctx context.Context, f storage.Filters) (*Response, error) {
	result, err := r.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query: structured search: %w", err)
	}
	return &Response{
		Restaurants: result.Items,
		Total:       result.Total,
		HasMore:     result.HasMore,
	}, nil
}

func (r *Ranker) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	return r.generator.Embed(ctx, text)
}

func (r *Ranker) countMatching(ctx context.Context, f storage.Filters) (int, error) {
	countFilters := f
	countFilters.Limit = 1
	countFilters.Offset = 0
	result, err := r.store.List(ctx, countFilters)
	if err != nil {
		return 0, fmt.Errorf("query: counting matches: %w", err)
	}
	return result.Total, nil
}
