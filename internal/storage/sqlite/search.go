package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// List returns restaurants matching the structured filters, sorted with
// restaurant ID as the stable tie-break. Cuisine matching uses the JSON1
// extension to test overlap against the stored tag array.
func (s *Store) List(ctx context.Context, f storage.Filters) (*storage.PaginatedResult[types.Restaurant], error) {
	f.Normalize()

	where, args := buildFilterClauses(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM restaurants` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: counting restaurants: %w", err)
	}

	direction := "DESC"
	if f.SortOrder == types.SortAsc {
		direction = "ASC"
	}
	// SortBy is whitelist-validated by Normalize.
	query := fmt.Sprintf(`SELECT %s FROM restaurants%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`,
		restaurantColumns, where, string(f.SortBy), direction)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing restaurants: %w", err)
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

// VectorSearch scans every filtered restaurant with a stored vector and
// ranks by cosine similarity in Go. Brute force, but SQLite deployments are
// small enough that this beats maintaining an index.
func (s *Store) VectorSearch(ctx context.Context, query []float32, f storage.Filters, limit int) ([]types.Restaurant, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidInput)
	}
	if limit < 1 {
		limit = 10
	}
	f.Normalize()

	where, args := buildFilterClauses(f)
	if where == "" {
		where = " WHERE embedding IS NOT NULL"
	} else {
		where += " AND embedding IS NOT NULL"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: vector search: %w", err)
	}
	defer rows.Close()

	restaurants, err := collectRestaurants(rows)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		restaurant types.Restaurant
		similarity float64
	}
	candidates := make([]ranked, 0, len(restaurants))
	for _, r := range restaurants {
		if !r.HasEmbedding() {
			continue
		}
		candidates = append(candidates, ranked{r, cosineSimilarity(query, r.Embedding)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].restaurant.ID < candidates[j].restaurant.ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	result := make([]types.Restaurant, len(candidates))
	for i, c := range candidates {
		result[i] = c.restaurant
	}
	return result, nil
}

func buildFilterClauses(f storage.Filters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.City != "" {
		clauses = append(clauses, "city = ?")
		args = append(args, f.City)
	}
	if f.Neighborhood != "" {
		clauses = append(clauses, "neighborhood = ?")
		args = append(args, f.Neighborhood)
	}
	if f.PriceMin > 0 {
		clauses = append(clauses, "price_tier >= ?")
		args = append(args, f.PriceMin)
	}
	if f.PriceMax > 0 {
		clauses = append(clauses, "price_tier <= ?")
		args = append(args, f.PriceMax)
	}
	if len(f.Cuisines) > 0 {
		placeholders := make([]string, len(f.Cuisines))
		for i, c := range f.Cuisines {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(strings.TrimSpace(c)))
		}
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(restaurants.cuisine_tags) WHERE LOWER(json_each.value) IN (%s))",
			strings.Join(placeholders, ", ")))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
