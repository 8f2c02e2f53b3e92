package types

import "time"

// Restaurant is the canonical entity for one real-world establishment.
// Identity fields are written by the entity resolver, aggregates by the
// signal aggregator, derived scores by the scoring engine, and the embedding
// by the indexer. A restaurant always has MentionCount >= 1: entities are
// only created in response to a mention.
type Restaurant struct {
	// Identity
	ID   string `json:"id"`   // Unique identifier (uuid)
	Name string `json:"name"` // Display name
	Slug string `json:"slug"` // URL-safe unique key; assigned at creation, never rewritten

	// Location (may be unresolved until enrichment succeeds)
	Address      string  `json:"address,omitempty"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	City         string  `json:"city"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`

	// External enrichment (mapping provider)
	PlaceID      string  `json:"place_id,omitempty"`
	MapsURL      string  `json:"maps_url,omitempty"`
	Rating       float64 `json:"rating,omitempty"` // External rating 0-5; 0 means unknown
	ReviewsCount int     `json:"reviews_count,omitempty"`
	PhotoURL     string  `json:"photo_url,omitempty"`

	// Descriptive attributes
	PriceTier         int      `json:"price_tier"` // 1-4
	CuisineTags       []string `json:"cuisine_tags,omitempty"`
	Vibe              string   `json:"vibe,omitempty"`
	RecommendedDishes []string `json:"recommended_dishes,omitempty"`

	// Aggregated signals: a derived, rebuildable cache over the mention log
	MentionCount    int        `json:"mention_count"`
	DistinctSources int        `json:"distinct_sources"`
	TotalUpvotes    int        `json:"total_upvotes"`
	TotalComments   int        `json:"total_comments"`
	MeanSentiment   float64    `json:"mean_sentiment"` // 0..1 over scored mentions; 0 when none
	LatestMentionAt *time.Time `json:"latest_mention_at,omitempty"`

	// Derived scores
	SentimentScore float64 `json:"sentiment_score"` // 0-10
	ViralScore     float64 `json:"viral_score"`     // 0-10
	ProScore       float64 `json:"pro_score"`       // 0-10
	BuzzScore      float64 `json:"buzz_score"`      // 0-20
	IsTrending     bool    `json:"is_trending"`
	IsNew          bool    `json:"is_new,omitempty"`

	// Embedding (nil until computed; restaurants without a vector are
	// excluded from similarity search but not from structured search)
	Embedding          []float32 `json:"-"`
	EmbeddingModel     string    `json:"embedding_model,omitempty"`
	ContentFingerprint string    `json:"-"` // Hash of the embedded document; drives re-embed invalidation

	// Optimistic concurrency
	Version int `json:"-"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasEmbedding reports whether a vector has been stored for this restaurant.
func (r *Restaurant) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// HasLocation reports whether enrichment has resolved coordinates.
func (r *Restaurant) HasLocation() bool {
	return r.Latitude != 0 || r.Longitude != 0
}
