// Package normalizer validates and cleans raw extraction output into
// structured Mention records. It is the boundary where the extraction
// service's conventions are converted to the system's canonical ones:
// sentiment arrives in -1..1 and is stored as 0..1, engagement counts are
// never negative, and oversized raw text is truncated.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// ErrExtractionInvalid indicates that the extraction output is unusable:
// typically an empty or unparseable restaurant name. Such mentions are
// logged and dropped, never stored.
var ErrExtractionInvalid = errors.New("extraction invalid")

// maxRawTextBytes caps stored raw text.
const maxRawTextBytes = 10000

// Extraction is the structured field set returned by the external
// extraction service for one restaurant found in a piece of content.
type Extraction struct {
	Name           string
	Sentiment      *float64 // -1..1 as produced by the extractor; nil when absent
	SentimentLabel types.SentimentLabel
	Aspects        map[string]float64 // aspect name → -1..1
	Cuisines       []string
	Dishes         []string
	PriceHint      string
	Vibe           string
}

// SourceMeta carries the scrape-side metadata for the content the
// extraction came from.
type SourceMeta struct {
	SourceType   types.SourceType
	SourceURL    string
	Title        string
	RawText      string
	Author       string
	Subreddit    string
	Upvotes      int
	CommentCount int
	PostedAt     *time.Time
}

// Normalizer validates extraction output and upserts Mention records.
type Normalizer struct {
	mentions storage.MentionStore
}

// New creates a Normalizer backed by the given mention store.
func New(mentions storage.MentionStore) *Normalizer {
	return &Normalizer{mentions: mentions}
}

// Normalize validates and cleans one extraction into a Mention and upserts
// it keyed by source URL, so re-ingesting the same URL updates rather than
// duplicates. Returns ErrExtractionInvalid (wrapped) when the extraction is
// unusable; the caller drops the mention and continues the batch.
func (n *Normalizer) Normalize(ctx context.Context, ex Extraction, meta SourceMeta) (*types.Mention, error) {
	m, err := Build(ex, meta, time.Now())
	if err != nil {
		return nil, err
	}

	// Preserve the existing ID (and resolution) on re-ingestion.
	if existing, getErr := n.mentions.GetBySourceURL(ctx, m.SourceURL); getErr == nil {
		m.ID = existing.ID
		m.RestaurantID = existing.RestaurantID
	} else if !errors.Is(getErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("normalizer: lookup %s: %w", m.SourceURL, getErr)
	}

	if err := n.mentions.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("normalizer: upsert %s: %w", m.SourceURL, err)
	}

	return m, nil
}

// Build constructs a validated Mention without touching storage. Exposed
// separately so the pipeline and tests can normalize without a store.
func Build(ex Extraction, meta SourceMeta, scrapedAt time.Time) (*types.Mention, error) {
	name := strings.TrimSpace(ex.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty restaurant name (source %s)", ErrExtractionInvalid, meta.SourceURL)
	}
	if strings.TrimSpace(meta.SourceURL) == "" {
		return nil, fmt.Errorf("%w: missing source URL for %q", ErrExtractionInvalid, name)
	}

	raw := meta.RawText
	if len(raw) > maxRawTextBytes {
		// Back off to a rune boundary so the cut never stores invalid UTF-8.
		cut := maxRawTextBytes
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut]
	}

	m := &types.Mention{
		ID:              uuid.NewString(),
		SourceType:      meta.SourceType,
		SourceURL:       strings.TrimSpace(meta.SourceURL),
		RestaurantName:  name,
		Title:           strings.TrimSpace(meta.Title),
		RawText:         raw,
		Author:          meta.Author,
		Subreddit:       meta.Subreddit,
		Upvotes:         nonNegative(meta.Upvotes),
		CommentCount:    nonNegative(meta.CommentCount),
		SentimentLabel:  ex.SentimentLabel,
		CuisineTags:     dedupeStrings(ex.Cuisines),
		DishesMentioned: dedupeStrings(ex.Dishes),
		PriceHint:       strings.TrimSpace(ex.PriceHint),
		VibeExtracted:   strings.TrimSpace(ex.Vibe),
		PostedAt:        meta.PostedAt,
		ScrapedAt:       scrapedAt,
	}

	if ex.Sentiment != nil {
		s := CanonicalSentiment(*ex.Sentiment)
		m.SentimentScore = &s
	}

	if len(ex.Aspects) > 0 {
		m.Aspects = make(map[string]float64, len(ex.Aspects))
		for k, v := range ex.Aspects {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				continue
			}
			m.Aspects[key] = CanonicalSentiment(v)
		}
	}

	return m, nil
}

// CanonicalSentiment clamps an extractor-range (-1..1) value and converts it
// to the canonical stored range 0..1.
func CanonicalSentiment(v float64) float64 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return (v + 1) / 2
}

// LogDropped records a dropped mention. Split out so the pipeline logs all
// drops uniformly.
func LogDropped(meta SourceMeta, err error) {
	log.Printf("normalizer: dropping mention from %s: %v", meta.SourceURL, err)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
