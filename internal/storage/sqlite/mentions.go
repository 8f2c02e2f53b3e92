package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

const mentionColumns = `
	id, restaurant_id, source_type, source_url,
	restaurant_name, title, raw_text, author, subreddit,
	upvotes, comment_count,
	sentiment_score, sentiment_label, aspects, cuisine_tags, dishes_mentioned,
	price_hint, vibe_extracted,
	posted_at, scraped_at`

// Upsert inserts a mention or updates the existing row sharing its source
// URL. The existing row keeps its id.
func (s *Store) Upsert(ctx context.Context, m *types.Mention) error {
	if m == nil || m.SourceURL == "" {
		return fmt.Errorf("%w: mention requires a source URL", storage.ErrInvalidInput)
	}

	aspects := sql.NullString{}
	if len(m.Aspects) > 0 {
		data, err := json.Marshal(m.Aspects)
		if err != nil {
			return fmt.Errorf("sqlite: marshaling aspects: %w", err)
		}
		aspects = sql.NullString{String: string(data), Valid: true}
	}
	cuisines, err := marshalStrings(m.CuisineTags)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling cuisine tags: %w", err)
	}
	dishes, err := marshalStrings(m.DishesMentioned)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling dishes: %w", err)
	}

	query := `
		INSERT INTO mentions (` + mentionColumns + `)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			restaurant_id = COALESCE(excluded.restaurant_id, mentions.restaurant_id),
			source_type = excluded.source_type,
			restaurant_name = excluded.restaurant_name,
			title = excluded.title,
			raw_text = excluded.raw_text,
			author = excluded.author,
			subreddit = excluded.subreddit,
			upvotes = excluded.upvotes,
			comment_count = excluded.comment_count,
			sentiment_score = excluded.sentiment_score,
			sentiment_label = excluded.sentiment_label,
			aspects = excluded.aspects,
			cuisine_tags = excluded.cuisine_tags,
			dishes_mentioned = excluded.dishes_mentioned,
			price_hint = excluded.price_hint,
			vibe_extracted = excluded.vibe_extracted,
			posted_at = excluded.posted_at,
			scraped_at = excluded.scraped_at`

	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.RestaurantID, string(m.SourceType), m.SourceURL,
		m.RestaurantName, m.Title, m.RawText, m.Author, m.Subreddit,
		m.Upvotes, m.CommentCount,
		m.SentimentScore, string(m.SentimentLabel), aspects, cuisines, dishes,
		m.PriceHint, m.VibeExtracted,
		m.PostedAt, m.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting mention %s: %w", m.SourceURL, err)
	}
	return nil
}

// GetBySourceURL retrieves a mention by its unique source URL.
func (s *Store) GetBySourceURL(ctx context.Context, url string) (*types.Mention, error) {
	query := `SELECT ` + mentionColumns + ` FROM mentions WHERE source_url = ?`

	m, err := scanMention(s.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting mention %s: %w", url, err)
	}
	return m, nil
}

// ReassignRestaurant attaches the mention with the given source URL to a
// restaurant, replacing any previous attachment.
func (s *Store) ReassignRestaurant(ctx context.Context, sourceURL, restaurantID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mentions SET restaurant_id = NULLIF(?, '') WHERE source_url = ?`,
		restaurantID, sourceURL)
	if err != nil {
		return fmt.Errorf("sqlite: reassigning mention %s: %w", sourceURL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reassigning mention %s: %w", sourceURL, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByRestaurant returns all mentions attached to a restaurant, most
// recently posted first.
func (s *Store) ListByRestaurant(ctx context.Context, restaurantID string) ([]types.Mention, error) {
	query := `
		SELECT ` + mentionColumns + `
		FROM mentions
		WHERE restaurant_id = ?
		ORDER BY COALESCE(posted_at, scraped_at) DESC, id`

	rows, err := s.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing mentions for %s: %w", restaurantID, err)
	}
	defer rows.Close()

	var mentions []types.Mention
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning mention: %w", err)
		}
		mentions = append(mentions, *m)
	}
	return mentions, rows.Err()
}

// CountByRestaurant returns the number of mentions attached to a restaurant.
func (s *Store) CountByRestaurant(ctx context.Context, restaurantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mentions WHERE restaurant_id = ?`, restaurantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting mentions for %s: %w", restaurantID, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMention(row rowScanner) (*types.Mention, error) {
	var m types.Mention
	var restaurantID, sourceType, label, aspects sql.NullString
	var cuisines, dishes string
	var sentiment sql.NullFloat64
	var postedAt sql.NullTime

	err := row.Scan(
		&m.ID, &restaurantID, &sourceType, &m.SourceURL,
		&m.RestaurantName, &m.Title, &m.RawText, &m.Author, &m.Subreddit,
		&m.Upvotes, &m.CommentCount,
		&sentiment, &label, &aspects, &cuisines, &dishes,
		&m.PriceHint, &m.VibeExtracted,
		&postedAt, &m.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}

	m.RestaurantID = restaurantID.String
	m.SourceType = types.SourceType(sourceType.String)
	m.SentimentLabel = types.SentimentLabel(label.String)
	if sentiment.Valid {
		v := sentiment.Float64
		m.SentimentScore = &v
	}
	if postedAt.Valid {
		t := postedAt.Time
		m.PostedAt = &t
	}
	if aspects.Valid && aspects.String != "" {
		if err := json.Unmarshal([]byte(aspects.String), &m.Aspects); err != nil {
			return nil, fmt.Errorf("unmarshaling aspects: %w", err)
		}
	}
	if m.CuisineTags, err = unmarshalStrings(cuisines); err != nil {
		return nil, fmt.Errorf("unmarshaling cuisine tags: %w", err)
	}
	if m.DishesMentioned, err = unmarshalStrings(dishes); err != nil {
		return nil, fmt.Errorf("unmarshaling dishes: %w", err)
	}
	return &m, nil
}
