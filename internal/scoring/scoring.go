// Package scoring derives the sentiment, viral, professional and buzz scores
// for a restaurant from its mention set. Compute is a pure function of the
// mentions, the external rating and the current time: no storage access, no
// hidden state. Scores are recomputed synchronously after every aggregation
// pass, never lazily at query time, so ranking reads are cheap and
// consistent.
package scoring

import (
	"math"
	"time"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// Score ranges.
const (
	// MaxComponentScore bounds the sentiment, viral and pro scores.
	MaxComponentScore = 10.0

	// MaxBuzzScore bounds the composite buzz score.
	MaxBuzzScore = 20.0
)

// Viral score calibration.
const (
	// ViralDecayDays controls the recency decay exp(-ageDays/ViralDecayDays)
	// applied to each mention's engagement contribution. Engagement from a
	// month ago is worth about a third of the same engagement today.
	ViralDecayDays = 30.0

	// ViralCalibration compresses the summed decayed raw engagement onto
	// 0-10. One fresh mention with ~250 upvotes lands around 4.4.
	ViralCalibration = 0.8

	// SourceDiversityBonus is the per-extra-source multiplier on raw viral
	// engagement. A restaurant mentioned across distinct sources outranks
	// one with the same totals from a single source.
	SourceDiversityBonus = 0.15

	// SourceDiversityCap limits how many distinct sources earn a bonus.
	SourceDiversityCap = 4
)

// Buzz score composition: 35% sentiment, 25% viral, 20% mention volume,
// 10% professional reviews, 10% external rating. Each scale constant maps a
// component's native range onto its share of the 0-20 buzz range.
const (
	BuzzSentimentScale = 0.7 // 0-10 → 0-7
	BuzzViralScale     = 0.5 // 0-10 → 0-5
	BuzzMentionPoints  = 4.0 // saturating volume term → 0-4
	BuzzProScale       = 0.2 // 0-10 → 0-2
	BuzzRatingScale    = 0.4 // 0-5 → 0-2

	// MentionCap is the mention count at which the volume term saturates.
	MentionCap = 25
)

// Trending flag thresholds.
const (
	// TrendingViralThreshold is the viral score above which a restaurant can
	// be flagged trending.
	TrendingViralThreshold = 5.0

	// TrendingWindow is how recent the latest mention must be.
	TrendingWindow = 14 * 24 * time.Hour
)

// Scores is the full derived-score snapshot for a restaurant. It is a
// deterministic function of the mention set, the external rating and the
// computation time, and is therefore always recomputable.
type Scores struct {
	Sentiment float64 // 0-10
	Viral     float64 // 0-10
	Pro       float64 // 0-10
	Buzz      float64 // 0-20
	Trending  bool
}

// Compute derives all scores from the restaurant's full mention set.
// rating is the external provider's 0-5 rating (0 = unknown).
func Compute(mentions []types.Mention, rating float64, w SourceWeights, now time.Time) Scores {
	s := Scores{
		Sentiment: sentimentScore(mentions, w, func(types.SourceType) bool { return true }),
		Viral:     viralScore(mentions, now),
		Pro:       sentimentScore(mentions, w, w.IsProfessional),
	}
	s.Buzz = buzzScore(s.Sentiment, s.Viral, s.Pro, len(mentions), rating)
	s.Trending = trending(s.Viral, latestMention(mentions), now)
	return s
}

// sentimentScore is the credibility-weighted mean sentiment mapped to 0-10,
// restricted to mentions whose source type passes include. Mentions without
// a sentiment value are skipped; zero scored mentions yield exactly 0.
func sentimentScore(mentions []types.Mention, w SourceWeights, include func(types.SourceType) bool) float64 {
	var weightedSum, weightTotal float64

	for i := range mentions {
		m := &mentions[i]
		if !m.HasSentiment() || !include(m.SourceType) {
			continue
		}
		cred := w.CredibilityFor(m.SourceType)
		weightedSum += *m.SentimentScore * MaxComponentScore * cred
		weightTotal += cred
	}

	if weightTotal == 0 {
		return 0
	}
	return clamp(weightedSum/weightTotal, 0, MaxComponentScore)
}

// viralScore sums log-scaled, recency-decayed engagement across mentions,
// applies the source-diversity multiplier, and compresses onto 0-10.
func viralScore(mentions []types.Mention, now time.Time) float64 {
	if len(mentions) == 0 {
		return 0
	}

	var raw float64
	seen := make(map[types.SourceType]struct{})

	for i := range mentions {
		m := &mentions[i]
		seen[m.SourceType] = struct{}{}

		ageDays := m.Age(now).Hours() / 24.0
		if ageDays < 0 {
			ageDays = 0
		}
		decay := math.Exp(-ageDays / ViralDecayDays)

		raw += (math.Log1p(float64(m.Upvotes)) + math.Log1p(float64(m.CommentCount))) * decay
	}

	distinct := len(seen)
	if distinct > SourceDiversityCap {
		distinct = SourceDiversityCap
	}
	raw *= 1 + SourceDiversityBonus*float64(distinct-1)

	return math.Min(MaxComponentScore, raw*ViralCalibration)
}

// buzzScore combines the component scores into the user-visible 0-20 value.
// Monotone non-decreasing in every component.
func buzzScore(sentiment, viral, pro float64, mentionCount int, rating float64) float64 {
	volume := math.Min(float64(mentionCount), MentionCap) / MentionCap * BuzzMentionPoints

	buzz := sentiment*BuzzSentimentScale +
		viral*BuzzViralScale +
		volume +
		pro*BuzzProScale +
		clamp(rating, 0, 5)*BuzzRatingScale

	return clamp(buzz, 0, MaxBuzzScore)
}

// trending is true when viral activity is high and recent. The flag is
// derived, not sticky: each recomputation clears it unless both conditions
// still hold.
func trending(viral float64, latest *time.Time, now time.Time) bool {
	if latest == nil {
		return false
	}
	return viral > TrendingViralThreshold && now.Sub(*latest) <= TrendingWindow
}

func latestMention(mentions []types.Mention) *time.Time {
	var latest *time.Time
	for i := range mentions {
		m := &mentions[i]
		at := m.PostedAt
		if at == nil {
			t := m.ScrapedAt
			at = &t
		}
		if latest == nil || at.After(*latest) {
			t := *at
			latest = &t
		}
	}
	return latest
}

// Apply copies the scores onto a restaurant record.
func (s Scores) Apply(r *types.Restaurant) {
	r.SentimentScore = s.Sentiment
	r.ViralScore = s.Viral
	r.ProScore = s.Pro
	r.BuzzScore = s.Buzz
	r.IsTrending = s.Trending
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
