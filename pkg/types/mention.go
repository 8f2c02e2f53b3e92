package types

import "time"

// Mention is one source's observation of a restaurant. Mentions form an
// append-only evidence log: once stored they are never deleted, and
// re-ingesting the same SourceURL updates the existing record rather than
// creating a duplicate. The only field mutated after resolution is
// RestaurantID, the back-reference to the canonical entity.
//
// SentimentScore is stored in the canonical 0..1 range. The extraction
// service reports -1..1; the normalizer converts at the boundary.
type Mention struct {
	// Core identification
	ID           string     `json:"id"`                      // Unique identifier (uuid)
	RestaurantID string     `json:"restaurant_id,omitempty"` // Resolved canonical entity; empty while unresolved
	SourceType   SourceType `json:"source_type"`             // Where the mention was observed
	SourceURL    string     `json:"source_url"`              // Unique upsert key

	// As written by the source
	RestaurantName string `json:"restaurant_name"` // Restaurant name exactly as extracted
	Title          string `json:"title,omitempty"`
	RawText        string `json:"raw_text"`
	Author         string `json:"author,omitempty"`
	Subreddit      string `json:"subreddit,omitempty"`

	// Engagement metrics (absent values normalized to 0)
	Upvotes      int `json:"upvotes"`
	CommentCount int `json:"comment_count"`

	// Extraction output
	SentimentScore  *float64           `json:"sentiment_score,omitempty"` // Canonical 0..1; nil when the extractor produced none
	SentimentLabel  SentimentLabel     `json:"sentiment_label,omitempty"`
	Aspects         map[string]float64 `json:"aspects,omitempty"` // aspect name → 0..1 score
	CuisineTags     []string           `json:"cuisine_tags,omitempty"`
	DishesMentioned []string           `json:"dishes_mentioned,omitempty"`
	PriceHint       string             `json:"price_hint,omitempty"`
	VibeExtracted   string             `json:"vibe_extracted,omitempty"`

	// Timestamps
	PostedAt  *time.Time `json:"posted_at,omitempty"` // When the source published; nil when unknown
	ScrapedAt time.Time  `json:"scraped_at"`
}

// HasSentiment reports whether the mention carries a numeric sentiment score.
func (m *Mention) HasSentiment() bool {
	return m.SentimentScore != nil
}

// Age returns the time elapsed since the mention was posted, falling back to
// the scrape time when the posted timestamp is unknown.
func (m *Mention) Age(now time.Time) time.Duration {
	if m.PostedAt != nil {
		return now.Sub(*m.PostedAt)
	}
	return now.Sub(m.ScrapedAt)
}
