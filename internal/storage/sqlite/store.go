// Package sqlite provides an embedded SQLite implementation of storage
// interfaces using modernc.org/sqlite (pure Go, no cgo). It is the default
// backend for development and tests. Vector search runs as a brute-force
// cosine scan in Go, which is fine at the dataset sizes SQLite is used for.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Schema contains the SQL statements to create the database schema.
// Arrays and maps are stored as JSON text; the embedding is a binary BLOB
// of little-endian float32 values.
const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,

    address TEXT NOT NULL DEFAULT '',
    neighborhood TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL,
    latitude REAL NOT NULL DEFAULT 0,
    longitude REAL NOT NULL DEFAULT 0,

    place_id TEXT NOT NULL DEFAULT '',
    maps_url TEXT NOT NULL DEFAULT '',
    rating REAL NOT NULL DEFAULT 0,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    photo_url TEXT NOT NULL DEFAULT '',

    price_tier INTEGER NOT NULL DEFAULT 0,
    cuisine_tags TEXT NOT NULL DEFAULT '[]',
    vibe TEXT NOT NULL DEFAULT '',
    recommended_dishes TEXT NOT NULL DEFAULT '[]',

    mention_count INTEGER NOT NULL DEFAULT 0,
    distinct_sources INTEGER NOT NULL DEFAULT 0,
    total_upvotes INTEGER NOT NULL DEFAULT 0,
    total_comments INTEGER NOT NULL DEFAULT 0,
    mean_sentiment REAL NOT NULL DEFAULT 0,
    latest_mention_at TIMESTAMP,

    sentiment_score REAL NOT NULL DEFAULT 0,
    viral_score REAL NOT NULL DEFAULT 0,
    pro_score REAL NOT NULL DEFAULT 0,
    buzz_score REAL NOT NULL DEFAULT 0,
    is_trending INTEGER NOT NULL DEFAULT 0,
    is_new INTEGER NOT NULL DEFAULT 0,

    embedding BLOB,
    embedding_model TEXT NOT NULL DEFAULT '',
    content_fingerprint TEXT NOT NULL DEFAULT '',

    version INTEGER NOT NULL DEFAULT 0,

    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_restaurants_city ON restaurants (city);

CREATE TABLE IF NOT EXISTS mentions (
    id TEXT PRIMARY KEY,
    restaurant_id TEXT,
    source_type TEXT NOT NULL,
    source_url TEXT NOT NULL UNIQUE,

    restaurant_name TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    raw_text TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    subreddit TEXT NOT NULL DEFAULT '',

    upvotes INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,

    sentiment_score REAL,
    sentiment_label TEXT NOT NULL DEFAULT '',
    aspects TEXT,
    cuisine_tags TEXT NOT NULL DEFAULT '[]',
    dishes_mentioned TEXT NOT NULL DEFAULT '[]',
    price_hint TEXT NOT NULL DEFAULT '',
    vibe_extracted TEXT NOT NULL DEFAULT '',

    posted_at TIMESTAMP,
    scraped_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mentions_restaurant ON mentions (restaurant_id);
`

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite store at the given path and applies the schema.
// Use ":memory:" for an ephemeral database in tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
