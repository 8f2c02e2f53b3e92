// Package signals recomputes per-restaurant aggregate signals from the full
// mention set. The mention log is the source of truth; the aggregates are a
// derived, rebuildable cache. Compute is a pure function and is safe to
// re-run any number of times without drift: there are no running counters.
package signals

import (
	"time"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// Signals holds the aggregates derived from a restaurant's mention set.
type Signals struct {
	// MentionCount is the total number of mentions.
	MentionCount int

	// ScoredMentions is the number of mentions carrying a sentiment value.
	ScoredMentions int

	// MeanSentiment is the mean sentiment (0..1) over scored mentions only.
	// A restaurant with zero scored mentions has MeanSentiment 0, not NaN.
	MeanSentiment float64

	// TotalUpvotes and TotalComments are engagement sums across all mentions.
	TotalUpvotes  int
	TotalComments int

	// PerSource counts mentions by source type.
	PerSource map[types.SourceType]int

	// DistinctSources is the number of distinct source types represented.
	// Used as a credibility signal: three mentions across three sources
	// should outrank three mentions from one source of equal magnitude.
	DistinctSources int

	// LatestMentionAt is the most recent posted timestamp (scrape time when
	// the posted time is unknown). Nil for an empty mention set.
	LatestMentionAt *time.Time
}

// Compute derives the aggregate signals from the authoritative mention list.
func Compute(mentions []types.Mention) Signals {
	sig := Signals{
		PerSource: make(map[types.SourceType]int),
	}

	var sentimentSum float64

	for i := range mentions {
		m := &mentions[i]

		sig.MentionCount++
		sig.TotalUpvotes += m.Upvotes
		sig.TotalComments += m.CommentCount
		sig.PerSource[m.SourceType]++

		if m.HasSentiment() {
			sig.ScoredMentions++
			sentimentSum += *m.SentimentScore
		}

		at := m.PostedAt
		if at == nil {
			t := m.ScrapedAt
			at = &t
		}
		if sig.LatestMentionAt == nil || at.After(*sig.LatestMentionAt) {
			t := *at
			sig.LatestMentionAt = &t
		}
	}

	if sig.ScoredMentions > 0 {
		sig.MeanSentiment = sentimentSum / float64(sig.ScoredMentions)
	}
	sig.DistinctSources = len(sig.PerSource)

	return sig
}

// Apply copies the aggregates onto a restaurant record.
func (s Signals) Apply(r *types.Restaurant) {
	r.MentionCount = s.MentionCount
	r.DistinctSources = s.DistinctSources
	r.TotalUpvotes = s.TotalUpvotes
	r.TotalComments = s.TotalComments
	r.MeanSentiment = s.MeanSentiment
	r.LatestMentionAt = s.LatestMentionAt
}
