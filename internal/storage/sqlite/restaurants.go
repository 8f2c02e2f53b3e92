package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

const restaurantColumns = `
	id, name, slug,
	address, neighborhood, city, latitude, longitude,
	place_id, maps_url, rating, reviews_count, photo_url,
	price_tier, cuisine_tags, vibe, recommended_dishes,
	mention_count, distinct_sources, total_upvotes, total_comments, mean_sentiment, latest_mention_at,
	sentiment_score, viral_score, pro_score, buzz_score, is_trending, is_new,
	embedding, embedding_model, content_fingerprint, version, created_at, updated_at`

// Create inserts a new restaurant. The slug must already be unique.
func (s *Store) Create(ctx context.Context, r *types.Restaurant) error {
	if r == nil || r.ID == "" || r.Slug == "" {
		return fmt.Errorf("%w: restaurant requires id and slug", storage.ErrInvalidInput)
	}

	cuisines, err := marshalStrings(r.CuisineTags)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling cuisine tags: %w", err)
	}
	dishes, err := marshalStrings(r.RecommendedDishes)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling dishes: %w", err)
	}

	var embedding []byte
	if r.HasEmbedding() {
		embedding = serializeEmbedding(r.Embedding)
	}

	query := `
		INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Name, r.Slug,
		r.Address, r.Neighborhood, r.City, r.Latitude, r.Longitude,
		r.PlaceID, r.MapsURL, r.Rating, r.ReviewsCount, r.PhotoURL,
		r.PriceTier, cuisines, r.Vibe, dishes,
		r.MentionCount, r.DistinctSources, r.TotalUpvotes, r.TotalComments, r.MeanSentiment, r.LatestMentionAt,
		r.SentimentScore, r.ViralScore, r.ProScore, r.BuzzScore, r.IsTrending, r.IsNew,
		embedding, r.EmbeddingModel, r.ContentFingerprint, r.Version, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating restaurant %s: %w", r.Slug, err)
	}
	return nil
}

// Get retrieves a restaurant by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Restaurant, error) {
	return s.getBy(ctx, "id", id)
}

// GetBySlug retrieves a restaurant by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*types.Restaurant, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *Store) getBy(ctx context.Context, column, value string) (*types.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE ` + column + ` = ?`

	r, err := scanRestaurant(s.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting restaurant by %s=%s: %w", column, value, err)
	}
	return r, nil
}

// Update writes mutable fields with optimistic version checking. Slug and
// embedding fields are excluded; embeddings go through UpdateEmbedding.
func (s *Store) Update(ctx context.Context, r *types.Restaurant) error {
	cuisines, err := marshalStrings(r.CuisineTags)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling cuisine tags: %w", err)
	}
	dishes, err := marshalStrings(r.RecommendedDishes)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling dishes: %w", err)
	}

	query := `
		UPDATE restaurants SET
			name = ?,
			address = ?, neighborhood = ?, city = ?, latitude = ?, longitude = ?,
			place_id = ?, maps_url = ?, rating = ?, reviews_count = ?, photo_url = ?,
			price_tier = ?, cuisine_tags = ?, vibe = ?, recommended_dishes = ?,
			mention_count = ?, distinct_sources = ?, total_upvotes = ?, total_comments = ?,
			mean_sentiment = ?, latest_mention_at = ?,
			sentiment_score = ?, viral_score = ?, pro_score = ?, buzz_score = ?,
			is_trending = ?, is_new = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	result, err := s.db.ExecContext(ctx, query,
		r.Name,
		r.Address, r.Neighborhood, r.City, r.Latitude, r.Longitude,
		r.PlaceID, r.MapsURL, r.Rating, r.ReviewsCount, r.PhotoURL,
		r.PriceTier, cuisines, r.Vibe, dishes,
		r.MentionCount, r.DistinctSources, r.TotalUpvotes, r.TotalComments,
		r.MeanSentiment, r.LatestMentionAt,
		r.SentimentScore, r.ViralScore, r.ProScore, r.BuzzScore,
		r.IsTrending, r.IsNew,
		time.Now().UTC(),
		r.ID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating restaurant %s: %w", r.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating restaurant %s: %w", r.ID, err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = ?)`, r.ID).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: updating restaurant %s: %w", r.ID, err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}

	r.Version++
	return nil
}

// UpdateEmbedding stores the vector, model and fingerprint without a
// version check; embeddings are derived data and last-writer-wins is safe.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32, model, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE restaurants
		SET embedding = ?, embedding_model = ?, content_fingerprint = ?, updated_at = ?
		WHERE id = ?`,
		serializeEmbedding(embedding), model, fingerprint, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating embedding for %s: %w", id, err)
	}
	return nil
}

// ListByCity returns all restaurants in a city.
func (s *Store) ListByCity(ctx context.Context, city string) ([]types.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE city = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing restaurants in %s: %w", city, err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// ListCuisines returns the distinct cuisine tags, lower-cased and sorted.
func (s *Store) ListCuisines(ctx context.Context, city string) ([]string, error) {
	query := `
		SELECT DISTINCT LOWER(json_each.value)
		FROM restaurants, json_each(restaurants.cuisine_tags)`
	var args []interface{}
	if city != "" {
		query += ` WHERE restaurants.city = ?`
		args = append(args, city)
	}
	query += ` ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cuisines: %w", err)
	}
	defer rows.Close()

	var cuisines []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cuisine: %w", err)
		}
		cuisines = append(cuisines, tag)
	}
	return cuisines, rows.Err()
}

// SlugExists reports whether a slug is already taken.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM restaurants WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking slug %s: %w", slug, err)
	}
	return exists, nil
}

func collectRestaurants(rows *sql.Rows) ([]types.Restaurant, error) {
	var restaurants []types.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning restaurant: %w", err)
		}
		restaurants = append(restaurants, *r)
	}
	return restaurants, rows.Err()
}

func scanRestaurant(row rowScanner) (*types.Restaurant, error) {
	var r types.Restaurant
	var cuisines, dishes string
	var latestMention sql.NullTime
	var embedding []byte

	err := row.Scan(
		&r.ID, &r.Name, &r.Slug,
		&r.Address, &r.Neighborhood, &r.City, &r.Latitude, &r.Longitude,
		&r.PlaceID, &r.MapsURL, &r.Rating, &r.ReviewsCount, &r.PhotoURL,
		&r.PriceTier, &cuisines, &r.Vibe, &dishes,
		&r.MentionCount, &r.DistinctSources, &r.TotalUpvotes, &r.TotalComments, &r.MeanSentiment, &latestMention,
		&r.SentimentScore, &r.ViralScore, &r.ProScore, &r.BuzzScore, &r.IsTrending, &r.IsNew,
		&embedding, &r.EmbeddingModel, &r.ContentFingerprint, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if latestMention.Valid {
		t := latestMention.Time
		r.LatestMentionAt = &t
	}
	if r.CuisineTags, err = unmarshalStrings(cuisines); err != nil {
		return nil, fmt.Errorf("unmarshaling cuisine tags: %w", err)
	}
	if r.RecommendedDishes, err = unmarshalStrings(dishes); err != nil {
		return nil, fmt.Errorf("unmarshaling dishes: %w", err)
	}
	if r.Embedding, err = deserializeEmbedding(embedding); err != nil {
		return nil, fmt.Errorf("decoding embedding: %w", err)
	}
	return &r, nil
}
