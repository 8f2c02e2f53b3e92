package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// restaurantColumns excludes the embedding vector, which only single-row
// reads load (list queries never need it).
const restaurantColumns = `
	id, name, slug,
	address, neighborhood, city, latitude, longitude,
	place_id, maps_url, rating, reviews_count, photo_url,
	price_tier, cuisine_tags, vibe, recommended_dishes,
	mention_count, distinct_sources, total_upvotes, total_comments, mean_sentiment, latest_mention_at,
	sentiment_score, viral_score, pro_score, buzz_score, is_trending, is_new,
	embedding_model, content_fingerprint, version, created_at, updated_at`

// Create inserts a new restaurant. The slug must already be unique.
func (s *Store) Create(ctx context.Context, r *types.Restaurant) error {
	if r == nil || r.ID == "" || r.Slug == "" {
		return fmt.Errorf("%w: restaurant requires id and slug", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Name, r.Slug,
		r.Address, r.Neighborhood, r.City, r.Latitude, r.Longitude,
		r.PlaceID, r.MapsURL, r.Rating, r.ReviewsCount, r.PhotoURL,
		r.PriceTier, pq.Array(r.CuisineTags), r.Vibe, pq.Array(r.RecommendedDishes),
		r.MentionCount, r.DistinctSources, r.TotalUpvotes, r.TotalComments, r.MeanSentiment, r.LatestMentionAt,
		r.SentimentScore, r.ViralScore, r.ProScore, r.BuzzScore, r.IsTrending, r.IsNew,
		r.EmbeddingModel, r.ContentFingerprint, r.Version, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating restaurant %s: %w", r.Slug, err)
	}
	return nil
}

// Get retrieves a restaurant by ID, including its embedding when present.
func (s *Store) Get(ctx context.Context, id string) (*types.Restaurant, error) {
	return s.getBy(ctx, "id", id)
}

// GetBySlug retrieves a restaurant by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*types.Restaurant, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *Store) getBy(ctx context.Context, column, value string) (*types.Restaurant, error) {
	embeddingExpr := "NULL::text"
	if s.pgvectorAvailable {
		embeddingExpr = "embedding::text"
	}

	query := `SELECT ` + restaurantColumns + `, ` + embeddingExpr + `
		FROM restaurants WHERE ` + column + ` = $1`

	r, err := scanRestaurant(s.db.QueryRowContext(ctx, query, value), true)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting restaurant by %s=%s: %w", column, value, err)
	}
	return r, nil
}

// Update writes all mutable fields using optimistic concurrency. The slug
// and embedding fields are deliberately excluded; slugs are immutable and
// embeddings go through UpdateEmbedding.
func (s *Store) Update(ctx context.Context, r *types.Restaurant) error {
	query := `
		UPDATE restaurants SET
			name = $1,
			address = $2, neighborhood = $3, city = $4, latitude = $5, longitude = $6,
			place_id = $7, maps_url = $8, rating = $9, reviews_count = $10, photo_url = $11,
			price_tier = $12, cuisine_tags = $13, vibe = $14, recommended_dishes = $15,
			mention_count = $16, distinct_sources = $17, total_upvotes = $18, total_comments = $19,
			mean_sentiment = $20, latest_mention_at = $21,
			sentiment_score = $22, viral_score = $23, pro_score = $24, buzz_score = $25,
			is_trending = $26, is_new = $27,
			version = version + 1, updated_at = $28
		WHERE id = $29 AND version = $30`

	result, err := s.db.ExecContext(ctx, query,
		r.Name,
		r.Address, r.Neighborhood, r.City, r.Latitude, r.Longitude,
		r.PlaceID, r.MapsURL, r.Rating, r.ReviewsCount, r.PhotoURL,
		r.PriceTier, pq.Array(r.CuisineTags), r.Vibe, pq.Array(r.RecommendedDishes),
		r.MentionCount, r.DistinctSources, r.TotalUpvotes, r.TotalComments,
		r.MeanSentiment, r.LatestMentionAt,
		r.SentimentScore, r.ViralScore, r.ProScore, r.BuzzScore,
		r.IsTrending, r.IsNew,
		time.Now().UTC(),
		r.ID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating restaurant %s: %w", r.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: updating restaurant %s: %w", r.ID, err)
	}
	if affected == 0 {
		// Distinguish a lost race from a missing row.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = $1)`, r.ID).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: updating restaurant %s: %w", r.ID, err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}

	r.Version++
	return nil
}

// UpdateEmbedding stores the vector, model and fingerprint. Embeddings are
// derived data, so last-writer-wins without a version check. Without
// pgvector only the bookkeeping columns are written.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32, model, fingerprint string) error {
	var err error
	if s.pgvectorAvailable {
		_, err = s.db.ExecContext(ctx, `
			UPDATE restaurants
			SET embedding = $1::vector, embedding_model = $2, content_fingerprint = $3, updated_at = NOW()
			WHERE id = $4`,
			pgvector.NewVector(embedding), model, fingerprint, id)
	} else {
		_, err = s.db.ExecContext(ctx, `
			UPDATE restaurants
			SET embedding_model = $1, content_fingerprint = $2, updated_at = NOW()
			WHERE id = $3`,
			model, fingerprint, id)
	}
	if err != nil {
		return fmt.Errorf("postgres: updating embedding for %s: %w", id, err)
	}
	return nil
}

// ListByCity returns all restaurants in a city, used as the resolver's
// candidate set.
func (s *Store) ListByCity(ctx context.Context, city string) ([]types.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE city = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing restaurants in %s: %w", city, err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// ListCuisines returns the distinct cuisine tags, lower-cased and sorted.
func (s *Store) ListCuisines(ctx context.Context, city string) ([]string, error) {
	query := `SELECT DISTINCT LOWER(tag) FROM restaurants, unnest(cuisine_tags) AS tag`
	var args []interface{}
	if city != "" {
		query += ` WHERE city = $1`
		args = append(args, city)
	}
	query += ` ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing cuisines: %w", err)
	}
	defer rows.Close()

	var cuisines []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("postgres: scanning cuisine: %w", err)
		}
		cuisines = append(cuisines, tag)
	}
	return cuisines, rows.Err()
}

// SlugExists reports whether a slug is already taken.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM restaurants WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: checking slug %s: %w", slug, err)
	}
	return exists, nil
}

func collectRestaurants(rows *sql.Rows) ([]types.Restaurant, error) {
	var restaurants []types.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows, false)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning restaurant: %w", err)
		}
		restaurants = append(restaurants, *r)
	}
	return restaurants, rows.Err()
}

func scanRestaurant(row rowScanner, withEmbedding bool) (*types.Restaurant, error) {
	var r types.Restaurant
	var latestMention sql.NullTime
	var embedding sql.NullString

	dest := []interface{}{
		&r.ID, &r.Name, &r.Slug,
		&r.Address, &r.Neighborhood, &r.City, &r.Latitude, &r.Longitude,
		&r.PlaceID, &r.MapsURL, &r.Rating, &r.ReviewsCount, &r.PhotoURL,
		&r.PriceTier, pq.Array(&r.CuisineTags), &r.Vibe, pq.Array(&r.RecommendedDishes),
		&r.MentionCount, &r.DistinctSources, &r.TotalUpvotes, &r.TotalComments, &r.MeanSentiment, &latestMention,
		&r.SentimentScore, &r.ViralScore, &r.ProScore, &r.BuzzScore, &r.IsTrending, &r.IsNew,
		&r.EmbeddingModel, &r.ContentFingerprint, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	}
	if withEmbedding {
		dest = append(dest, &embedding)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if latestMention.Valid {
		t := latestMention.Time
		r.LatestMentionAt = &t
	}
	if embedding.Valid && embedding.String != "" {
		var vec pgvector.Vector
		if err := vec.Scan(embedding.String); err != nil {
			return nil, fmt.Errorf("parsing embedding: %w", err)
		}
		r.Embedding = vec.Slice()
	}
	return &r, nil
}
