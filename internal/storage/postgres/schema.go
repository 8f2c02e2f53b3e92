// Package postgres provides a PostgreSQL implementation of storage interfaces.
package postgres

// Schema contains the SQL statements to create the database schema.
// All statements are idempotent (IF NOT EXISTS) so the schema can be
// reapplied on every startup.
const Schema = `
-- Restaurants table: canonical entities with aggregates and derived scores.
CREATE TABLE IF NOT EXISTS restaurants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,

    -- Location
    address TEXT NOT NULL DEFAULT '',
    neighborhood TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    longitude DOUBLE PRECISION NOT NULL DEFAULT 0,

    -- External enrichment
    place_id TEXT NOT NULL DEFAULT '',
    maps_url TEXT NOT NULL DEFAULT '',
    rating DOUBLE PRECISION NOT NULL DEFAULT 0,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    photo_url TEXT NOT NULL DEFAULT '',

    -- Descriptive attributes
    price_tier INTEGER NOT NULL DEFAULT 0,
    cuisine_tags TEXT[] NOT NULL DEFAULT '{}',
    vibe TEXT NOT NULL DEFAULT '',
    recommended_dishes TEXT[] NOT NULL DEFAULT '{}',

    -- Aggregated signals (derived cache over the mention log)
    mention_count INTEGER NOT NULL DEFAULT 0,
    distinct_sources INTEGER NOT NULL DEFAULT 0,
    total_upvotes INTEGER NOT NULL DEFAULT 0,
    total_comments INTEGER NOT NULL DEFAULT 0,
    mean_sentiment DOUBLE PRECISION NOT NULL DEFAULT 0,
    latest_mention_at TIMESTAMPTZ,

    -- Derived scores
    sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    viral_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    pro_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    buzz_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_trending BOOLEAN NOT NULL DEFAULT FALSE,
    is_new BOOLEAN NOT NULL DEFAULT FALSE,

    -- Embedding bookkeeping (the vector column is added by MigrationPgvector)
    embedding_model TEXT NOT NULL DEFAULT '',
    content_fingerprint TEXT NOT NULL DEFAULT '',

    -- Optimistic concurrency
    version INTEGER NOT NULL DEFAULT 0,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_restaurants_city ON restaurants (city);
CREATE INDEX IF NOT EXISTS idx_restaurants_buzz ON restaurants (buzz_score DESC, id);
CREATE INDEX IF NOT EXISTS idx_restaurants_cuisines ON restaurants USING GIN (cuisine_tags);

-- Mentions table: append-only evidence log keyed by source URL.
CREATE TABLE IF NOT EXISTS mentions (
    id TEXT PRIMARY KEY,
    restaurant_id TEXT REFERENCES restaurants(id),
    source_type TEXT NOT NULL,
    source_url TEXT NOT NULL UNIQUE,

    restaurant_name TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    raw_text TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    subreddit TEXT NOT NULL DEFAULT '',

    upvotes INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,

    sentiment_score DOUBLE PRECISION,
    sentiment_label TEXT NOT NULL DEFAULT '',
    aspects JSONB,
    cuisine_tags TEXT[] NOT NULL DEFAULT '{}',
    dishes_mentioned TEXT[] NOT NULL DEFAULT '{}',
    price_hint TEXT NOT NULL DEFAULT '',
    vibe_extracted TEXT NOT NULL DEFAULT '',

    posted_at TIMESTAMPTZ,
    scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mentions_restaurant ON mentions (restaurant_id, posted_at DESC);
`

// MigrationPgvector adds the embedding column and ANN index. Only applied
// when the vector extension is available. Safe to run multiple times.
const MigrationPgvector = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'restaurants' AND column_name = 'embedding'
    ) THEN
        ALTER TABLE restaurants ADD COLUMN embedding vector;
    END IF;
END
$$;

-- ivfflat needs at least one row before the index is worth building.
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_indexes WHERE indexname = 'idx_restaurants_embedding_cosine'
  ) THEN
    IF EXISTS (SELECT 1 FROM restaurants LIMIT 1) THEN
      EXECUTE 'CREATE INDEX idx_restaurants_embedding_cosine ON restaurants USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)';
    END IF;
  END IF;
END$$;
`
