package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

type fakeStore struct {
	storage.Store

	listResult   *storage.PaginatedResult[types.Restaurant]
	listCalls    int
	lastFilters  storage.Filters
	vectorResult []types.Restaurant
	vectorErr    error
	vectorCalls  int
	vectorLimit  int
}

func (s *fakeStore) List(_ context.Context, f storage.Filters) (*storage.PaginatedResult[types.Restaurant], error) {
	s.listCalls++
	s.lastFilters = f
	if s.listResult == nil {
		return &storage.PaginatedResult[types.Restaurant]{}, nil
	}
	return s.listResult, nil
}

func (s *fakeStore) VectorSearch(_ context.Context, _ []float32, _ storage.Filters, limit int) ([]types.Restaurant, error) {
	s.vectorCalls++
	s.vectorLimit = limit
	return s.vectorResult, s.vectorErr
}

type stubGenerator struct {
	err error
}

func (g *stubGenerator) Embed(context.Context, string) ([]float32, error) {
	if g.err != nil {
		return nil, g.err
	}
	return []float32{1, 0}, nil
}

func (g *stubGenerator) Model() string { return "stub" }

func restaurants(n int) []types.Restaurant {
	out := make([]types.Restaurant, n)
	for i := range out {
		out[i] = types.Restaurant{ID: fmt.Sprintf("r-%d", i)}
	}
	return out
}

func TestSearch_EmptyQueryIsStructured(t *testing.T) {
	store := &fakeStore{listResult: &storage.PaginatedResult[types.Restaurant]{
		Items: restaurants(2), Total: 2,
	}}
	r := New(store, &stubGenerator{})

	resp, err := r.Search(context.Background(), Request{Filters: storage.Filters{City: "toronto"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Semantic {
		t.Error("empty query must not be semantic")
	}
	if store.vectorCalls != 0 {
		t.Error("empty query must not hit vector search")
	}
	if resp.Total != 2 || len(resp.Restaurants) != 2 {
		t.Errorf("got %d/%d, want 2/2", len(resp.Restaurants), resp.Total)
	}
}

func TestSearch_NilGeneratorIsStructured(t *testing.T) {
	store := &fakeStore{}
	r := New(store, nil)

	resp, err := r.Search(context.Background(), Request{Query: "cozy ramen"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Semantic || store.vectorCalls != 0 {
		t.Error("no generator means structured search only")
	}
}

func TestSearch_EmbedFailureFallsBack(t *testing.T) {
	store := &fakeStore{listResult: &storage.PaginatedResult[types.Restaurant]{
		Items: restaurants(1), Total: 1,
	}}
	r := New(store, &stubGenerator{err: errors.New("provider down")})

	resp, err := r.Search(context.Background(), Request{Query: "cozy ramen"})
	if err != nil {
		t.Fatalf("embed failure must degrade, not fail: %v", err)
	}
	if resp.Semantic {
		t.Error("degraded response must not claim semantic ranking")
	}
	if len(resp.Restaurants) != 1 {
		t.Errorf("got %d results from structured fallback, want 1", len(resp.Restaurants))
	}
}

func TestSearch_VectorUnavailableFallsBack(t *testing.T) {
	store := &fakeStore{
		listResult: &storage.PaginatedResult[types.Restaurant]{Items: restaurants(1), Total: 1},
		vectorErr:  storage.ErrVectorSearchUnavailable,
	}
	r := New(store, &stubGenerator{})

	resp, err := r.Search(context.Background(), Request{Query: "cozy ramen"})
	if err != nil {
		t.Fatalf("missing vector support must degrade, not fail: %v", err)
	}
	if resp.Semantic {
		t.Error("fallback response must not claim semantic ranking")
	}
}

func TestSearch_SemanticPagination(t *testing.T) {
	store := &fakeStore{
		listResult:   &storage.PaginatedResult[types.Restaurant]{Total: 40},
		vectorResult: restaurants(6),
	}
	r := New(store, &stubGenerator{})

	resp, err := r.Search(context.Background(), Request{
		Query:   "cozy ramen",
		Filters: storage.Filters{Limit: 2, Offset: 2},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Semantic {
		t.Fatal("expected semantic ranking")
	}
	if len(resp.Restaurants) != 2 {
		t.Fatalf("page size = %d, want 2", len(resp.Restaurants))
	}
	// Candidates are similarity-ordered; page 2 starts at the third.
	if resp.Restaurants[0].ID != "r-2" || resp.Restaurants[1].ID != "r-3" {
		t.Errorf("page = %s %s, want r-2 r-3", resp.Restaurants[0].ID, resp.Restaurants[1].ID)
	}
	if resp.Total != 40 {
		t.Errorf("total = %d, want the filter-wide count 40", resp.Total)
	}
	if !resp.HasMore {
		t.Error("want HasMore with 40 total matches")
	}
	// Small pages over-fetch up to the candidate floor.
	if store.vectorLimit != 30 {
		t.Errorf("candidate limit = %d, want the floor of 30", store.vectorLimit)
	}
}

func TestSearch_OffsetBeyondCandidates(t *testing.T) {
	store := &fakeStore{
		listResult:   &storage.PaginatedResult[types.Restaurant]{Total: 3},
		vectorResult: restaurants(3),
	}
	r := New(store, &stubGenerator{})

	resp, err := r.Search(context.Background(), Request{
		Query:   "cozy ramen",
		Filters: storage.Filters{Limit: 10, Offset: 50},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Restaurants) != 0 {
		t.Errorf("got %d results past the candidate pool, want 0", len(resp.Restaurants))
	}
}

func TestTrending_FiltersFlagged(t *testing.T) {
	items := restaurants(5)
	items[1].IsTrending = true
	items[3].IsTrending = true
	items[4].IsTrending = true
	store := &fakeStore{listResult: &storage.PaginatedResult[types.Restaurant]{Items: items, Total: 5}}
	r := New(store, nil)

	got, err := r.Trending(context.Background(), "toronto", 2)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want the limit of 2", len(got))
	}
	if got[0].ID != "r-1" || got[1].ID != "r-3" {
		t.Errorf("trending = %s %s, want r-1 r-3 in list order", got[0].ID, got[1].ID)
	}
	if store.lastFilters.SortBy != types.SortByViral {
		t.Errorf("trending sorted by %q, want viral score", store.lastFilters.SortBy)
	}
}
