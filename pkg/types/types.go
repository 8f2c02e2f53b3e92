// Package types defines the core domain types for BellyBuzz: mentions,
// restaurants, and the enumerations shared across the ingestion pipeline
// and the query surface.
package types

// SourceType identifies where a mention was observed.
type SourceType string

const (
	SourceReddit      SourceType = "reddit"
	SourceBlog        SourceType = "blog"
	SourceEater       SourceType = "eater"
	SourceTorontoLife SourceType = "toronto_life"
	SourceBlogTO      SourceType = "blogto"
	SourceInstagram   SourceType = "instagram"
	SourceManual      SourceType = "manual"
)

// SentimentLabel is the categorical sentiment assigned by the extraction
// service alongside the numeric score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentMixed    SentimentLabel = "mixed"
)

// SortBy enumerates the fields the query surface can sort restaurants on.
type SortBy string

const (
	SortByBuzz      SortBy = "buzz_score"
	SortBySentiment SortBy = "sentiment_score"
	SortByViral     SortBy = "viral_score"
	SortByRating    SortBy = "rating"
	SortByMentions  SortBy = "mention_count"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ValidSortBy reports whether s is one of the supported sort fields.
func ValidSortBy(s SortBy) bool {
	switch s {
	case SortByBuzz, SortBySentiment, SortByViral, SortByRating, SortByMentions:
		return true
	}
	return false
}
