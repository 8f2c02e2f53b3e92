package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// List returns restaurants matching the structured filters, sorted by the
// requested field with restaurant ID as the stable tie-break so identical
// inputs always produce identical orderings.
func (s *Store) List(ctx context.Context, f storage.Filters) (*storage.PaginatedResult[types.Restaurant], error) {
	f.Normalize()

	where, args := buildFilterClauses(f, 0)

	var total int
	countQuery := `SELECT COUNT(*) FROM restaurants` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("postgres: counting restaurants: %w", err)
	}

	// SortBy is whitelist-validated by Normalize, so interpolating the
	// column name is safe.
	direction := "DESC"
	if f.SortOrder == types.SortAsc {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM restaurants%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		restaurantColumns, where, string(f.SortBy), direction, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing restaurants: %w", err)
	}
	defer rows.Close()

	restaurants, err := collectRestaurants(rows)
	if err != nil {
		return nil, err
	}

	return &storage.PaginatedResult[types.Restaurant]{
		Items:   restaurants,
		Total:   total,
		HasMore: f.Offset+len(restaurants) < total,
	}, nil
}

// VectorSearch returns up to limit restaurants passing the filters, ordered
// by cosine similarity to the query vector. Restaurants without a stored
// vector never appear. Returns storage.ErrVectorSearchUnavailable when the
// pgvector extension is missing.
func (s *Store) VectorSearch(ctx context.Context, query []float32, f storage.Filters, limit int) ([]types.Restaurant, error) {
	if !s.pgvectorAvailable {
		return nil, storage.ErrVectorSearchUnavailable
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidInput)
	}
	if limit < 1 {
		limit = 10
	}
	f.Normalize()

	where, args := buildFilterClauses(f, 1)
	if where == "" {
		where = " WHERE embedding IS NOT NULL"
	} else {
		where += " AND embedding IS NOT NULL"
	}

	querySQL := fmt.Sprintf(`
		SELECT %s FROM restaurants%s
		ORDER BY embedding <=> $1::vector, id ASC
		LIMIT $%d`,
		restaurantColumns, where, len(args)+2)

	allArgs := append([]interface{}{pgvector.NewVector(query)}, args...)
	allArgs = append(allArgs, limit)

	rows, err := s.db.QueryContext(ctx, querySQL, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("postgres: vector search: %w", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// buildFilterClauses renders the structured filters as a WHERE clause.
// argOffset counts placeholders already consumed by the caller's query.
func buildFilterClauses(f storage.Filters, argOffset int) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	next := func() int { return argOffset + len(args) + 1 }

	if f.City != "" {
		clauses = append(clauses, fmt.Sprintf("city = $%d", next()))
		args = append(args, f.City)
	}
	if f.Neighborhood != "" {
		clauses = append(clauses, fmt.Sprintf("neighborhood = $%d", next()))
		args = append(args, f.Neighborhood)
	}
	if f.PriceMin > 0 {
		clauses = append(clauses, fmt.Sprintf("price_tier >= $%d", next()))
		args = append(args, f.PriceMin)
	}
	if f.PriceMax > 0 {
		clauses = append(clauses, fmt.Sprintf("price_tier <= $%d", next()))
		args = append(args, f.PriceMax)
	}
	if len(f.Cuisines) > 0 {
		lowered := make([]string, len(f.Cuisines))
		for i, c := range f.Cuisines {
			lowered[i] = strings.ToLower(strings.TrimSpace(c))
		}
		// Overlap: the restaurant carries at least one requested cuisine.
		clauses = append(clauses, fmt.Sprintf("ARRAY(SELECT LOWER(unnest(cuisine_tags))) && $%d", next()))
		args = append(args, pq.Array(lowered))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
