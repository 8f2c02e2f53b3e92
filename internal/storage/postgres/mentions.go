package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

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

// Upsert inserts a mention or, when the source URL already exists, updates
// the stored row in place. The existing row keeps its id, so re-ingestion
// never multiplies mentions.
func (s *Store) Upsert(ctx context.Context, m *types.Mention) error {
	if m == nil || m.SourceURL == "" {
		return fmt.Errorf("%w: mention requires a source URL", storage.ErrInvalidInput)
	}

	aspects, err := marshalAspects(m.Aspects)
	if err != nil {
		return fmt.Errorf("postgres: marshaling aspects: %w", err)
	}

	query := `
		INSERT INTO mentions (` + mentionColumns + `)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (source_url) DO UPDATE SET
			restaurant_id = COALESCE(EXCLUDED.restaurant_id, mentions.restaurant_id),
			source_type = EXCLUDED.source_type,
			restaurant_name = EXCLUDED.restaurant_name,
			title = EXCLUDED.title,
			raw_text = EXCLUDED.raw_text,
			author = EXCLUDED.author,
			subreddit = EXCLUDED.subreddit,
			upvotes = EXCLUDED.upvotes,
			comment_count = EXCLUDED.comment_count,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_label = EXCLUDED.sentiment_label,
			aspects = EXCLUDED.aspects,
			cuisine_tags = EXCLUDED.cuisine_tags,
			dishes_mentioned = EXCLUDED.dishes_mentioned,
			price_hint = EXCLUDED.price_hint,
			vibe_extracted = EXCLUDED.vibe_extracted,
			posted_at = EXCLUDED.posted_at,
			scraped_at = EXCLUDED.scraped_at`

	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.RestaurantID, string(m.SourceType), m.SourceURL,
		m.RestaurantName, m.Title, m.RawText, m.Author, m.Subreddit,
		m.Upvotes, m.CommentCount,
		m.SentimentScore, string(m.SentimentLabel), aspects,
		pq.Array(m.CuisineTags), pq.Array(m.DishesMentioned),
		m.PriceHint, m.VibeExtracted,
		m.PostedAt, m.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upserting mention %s: %w", m.SourceURL, err)
	}
	return nil
}

// GetBySourceURL retrieves a mention by its unique source URL.
func (s *Store) GetBySourceURL(ctx context.Context, url string) (*types.Mention, error) {
	query := `SELECT ` + mentionColumns + ` FROM mentions WHERE source_url = $1`

	m, err := scanMention(s.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting mention %s: %w", url, err)
	}
	return m, nil
}

// ReassignRestaurant attaches the mention with the given source URL to a
// restaurant, replacing any previous attachment.
func (s *Store) ReassignRestaurant(ctx context.Context, sourceURL, restaurantID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mentions SET restaurant_id = NULLIF($2, '') WHERE source_url = $1`,
		sourceURL, restaurantID)
	if err != nil {
		return fmt.Errorf("postgres: reassigning mention %s: %w", sourceURL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: reassigning mention %s: %w", sourceURL, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByRestaurant returns all mentions attached to a restaurant, most
// recently posted first. Mentions without a posted time sort by scrape time.
func (s *Store) ListByRestaurant(ctx context.Context, restaurantID string) ([]types.Mention, error) {
	query := `
		SELECT ` + mentionColumns + `
		FROM mentions
		WHERE restaurant_id = $1
		ORDER BY COALESCE(posted_at, scraped_at) DESC, id`

	rows, err := s.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing mentions for %s: %w", restaurantID, err)
	}
	defer rows.Close()

	var mentions []types.Mention
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning mention: %w", err)
		}
		mentions = append(mentions, *m)
	}
	return mentions, rows.Err()
}

// CountByRestaurant returns the number of mentions attached to a restaurant.
func (s *Store) CountByRestaurant(ctx context.Context, restaurantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mentions WHERE restaurant_id = $1`, restaurantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: counting mentions for %s: %w", restaurantID, err)
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMention(row rowScanner) (*types.Mention, error) {
	var m types.Mention
	var restaurantID, sourceType, label sql.NullString
	var sentiment sql.NullFloat64
	var aspects []byte
	var postedAt sql.NullTime

	err := row.Scan(
		&m.ID, &restaurantID, &sourceType, &m.SourceURL,
		&m.RestaurantName, &m.Title, &m.RawText, &m.Author, &m.Subreddit,
		&m.Upvotes, &m.CommentCount,
		&sentiment, &label, &aspects,
		pq.Array(&m.CuisineTags), pq.Array(&m.DishesMentioned),
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
	if len(aspects) > 0 {
		if err := json.Unmarshal(aspects, &m.Aspects); err != nil {
			return nil, fmt.Errorf("unmarshaling aspects: %w", err)
		}
	}
	return &m, nil
}

func marshalAspects(aspects map[string]float64) ([]byte, error) {
	if len(aspects) == 0 {
		return nil, nil
	}
	return json.Marshal(aspects)
}
