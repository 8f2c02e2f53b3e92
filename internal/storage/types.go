package storage

import (
	"errors"
	"strings"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates that an optimistic update lost a concurrent
	// write race. Callers should re-read the row and retry.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrVectorSearchUnavailable indicates the backend cannot serve
	// similarity queries (e.g. the pgvector extension is missing). The
	// query layer falls back to structured search.
	ErrVectorSearchUnavailable = errors.New("vector search unavailable")
)

// PaginatedResult represents a paginated result set with type safety using generics.
type PaginatedResult[T any] struct {
	// Items is the slice of results for the current page.
	Items []T

	// Total is the total number of items matching the filters across all pages.
	Total int

	// HasMore indicates whether there are more results beyond this page.
	HasMore bool
}

// Filters describes the structured predicates and ordering for restaurant
// list and search operations. Every active filter must be respected exactly:
// no filtered-out restaurant may appear in results.
type Filters struct {
	// City restricts results to one city. Empty string means no filter.
	City string

	// PriceMin and PriceMax bound the price tier (1-4). Zero means unbounded.
	PriceMin int
	PriceMax int

	// Cuisines matches restaurants carrying at least one of the given tags
	// (case-insensitive). Empty slice means no filter.
	Cuisines []string

	// Neighborhood restricts to one neighborhood. Empty string means no filter.
	Neighborhood string

	// SortBy is one of the derived scores, the external rating, or the
	// mention count. Invalid values normalize to buzz score.
	SortBy types.SortBy

	// SortOrder is "asc" or "desc" (default: desc).
	SortOrder types.SortOrder

	// Limit is the maximum number of results (default: 20, max: 100).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// Normalize applies defaults and clamps the filter values. The city is
// lower-cased to match how the resolver stores it. SortBy is
// whitelist-validated to prevent SQL injection through ORDER BY.
func (f *Filters) Normalize() {
	f.City = strings.ToLower(strings.TrimSpace(f.City))
	if !types.ValidSortBy(f.SortBy) {
		f.SortBy = types.SortByBuzz
	}
	if f.SortOrder != types.SortAsc && f.SortOrder != types.SortDesc {
		f.SortOrder = types.SortDesc
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.PriceMin < 0 {
		f.PriceMin = 0
	}
	if f.PriceMax > 4 {
		f.PriceMax = 4
	}
}
