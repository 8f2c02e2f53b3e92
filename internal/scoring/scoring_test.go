package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

func ptr(v float64) *float64 { return &v }

// uniformWeights gives every source credibility 1.0, so sentiment averaging
// collapses to a plain mean.
func uniformWeights() SourceWeights {
	return SourceWeights{Default: 1.0}
}

func daysAgo(now time.Time, days float64) *time.Time {
	t := now.Add(-time.Duration(days * 24 * float64(time.Hour)))
	return &t
}

// Mention A: sentiment 0.9, 50 upvotes, 2 days old. Mention B: sentiment
// 0.3, 5 upvotes, 20 days old. With uniform weighting the sentiment score
// must be exactly (0.9+0.3)/2 * 10 = 6.0, and A's contribution to the viral
// score must dominate B's (recency decay plus higher engagement).
func TestCompute_WorkedExample(t *testing.T) {
	now := time.Now()
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.9), Upvotes: 50, PostedAt: daysAgo(now, 2), ScrapedAt: now},
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.3), Upvotes: 5, PostedAt: daysAgo(now, 20), ScrapedAt: now},
	}

	s := Compute(mentions, 0, uniformWeights(), now)

	if math.Abs(s.Sentiment-6.0) > 1e-9 {
		t.Errorf("Sentiment = %f, want exactly 6.0", s.Sentiment)
	}

	onlyA := Compute(mentions[:1], 0, uniformWeights(), now)
	onlyB := Compute(mentions[1:], 0, uniformWeights(), now)
	if onlyA.Viral <= onlyB.Viral {
		t.Errorf("fresh high-engagement mention should dominate viral: A=%f B=%f", onlyA.Viral, onlyB.Viral)
	}
}

func TestCompute_ZeroMentions(t *testing.T) {
	s := Compute(nil, 0, DefaultSourceWeights(), time.Now())
	if s.Sentiment != 0 || s.Viral != 0 || s.Pro != 0 || s.Buzz != 0 || s.Trending {
		t.Errorf("zero mentions must yield zero scores, got %+v", s)
	}
}

func TestCompute_NoSentimentDataIsZeroNotError(t *testing.T) {
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 10, ScrapedAt: time.Now()},
	}
	s := Compute(mentions, 0, DefaultSourceWeights(), time.Now())
	if s.Sentiment != 0 {
		t.Errorf("Sentiment = %f, want 0 when no mention carries sentiment", s.Sentiment)
	}
}

func TestBuzzScore_Bounds(t *testing.T) {
	now := time.Now()

	// Saturate every component.
	var mentions []types.Mention
	for i := 0; i < 50; i++ {
		mentions = append(mentions, types.Mention{
			SourceType:     types.SourceEater,
			SentimentScore: ptr(1.0),
			Upvotes:        100000,
			CommentCount:   50000,
			PostedAt:       daysAgo(now, 0),
			ScrapedAt:      now,
		})
	}

	s := Compute(mentions, 5.0, DefaultSourceWeights(), now)
	if s.Buzz < 0 || s.Buzz > MaxBuzzScore {
		t.Errorf("Buzz = %f, out of [0, %f]", s.Buzz, MaxBuzzScore)
	}
	if s.Sentiment > MaxComponentScore || s.Viral > MaxComponentScore || s.Pro > MaxComponentScore {
		t.Errorf("component score out of range: %+v", s)
	}
}

// Buzz must be non-decreasing in sentiment and viral, holding the other
// inputs fixed.
func TestBuzzScore_Monotone(t *testing.T) {
	for s1 := 0.0; s1 <= 10.0; s1 += 2.5 {
		for s2 := s1; s2 <= 10.0; s2 += 2.5 {
			lo := buzzScore(s1, 5, 0, 10, 4.0)
			hi := buzzScore(s2, 5, 0, 10, 4.0)
			if hi < lo {
				t.Errorf("buzz decreased in sentiment: f(%f)=%f > f(%f)=%f", s1, lo, s2, hi)
			}

			lo = buzzScore(5, s1, 0, 10, 4.0)
			hi = buzzScore(5, s2, 0, 10, 4.0)
			if hi < lo {
				t.Errorf("buzz decreased in viral: f(%f)=%f > f(%f)=%f", s1, lo, s2, hi)
			}
		}
	}
}

func TestSentimentScore_CredibilityWeighting(t *testing.T) {
	// An eater review (weight 1.0) saying 1.0 and an instagram post
	// (weight 0.6) saying 0.0 must average above the plain midpoint 5.0.
	mentions := []types.Mention{
		{SourceType: types.SourceEater, SentimentScore: ptr(1.0)},
		{SourceType: types.SourceInstagram, SentimentScore: ptr(0.0)},
	}
	s := Compute(mentions, 0, DefaultSourceWeights(), time.Now())
	want := (1.0 * 10 * 1.0) / (1.0 + 0.6)
	if math.Abs(s.Sentiment-want) > 1e-9 {
		t.Errorf("Sentiment = %f, want %f", s.Sentiment, want)
	}
}

func TestProScore_OnlyProfessionalSources(t *testing.T) {
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.2)},
		{SourceType: types.SourceEater, SentimentScore: ptr(0.9)},
	}
	s := Compute(mentions, 0, DefaultSourceWeights(), time.Now())
	if math.Abs(s.Pro-9.0) > 1e-9 {
		t.Errorf("Pro = %f, want 9.0 (eater mention only)", s.Pro)
	}
}

func TestTrending_RequiresRecencyAndViralSpike(t *testing.T) {
	now := time.Now()

	hot := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 5000, CommentCount: 800, PostedAt: daysAgo(now, 1), ScrapedAt: now},
		{SourceType: types.SourceBlogTO, Upvotes: 2000, CommentCount: 300, PostedAt: daysAgo(now, 2), ScrapedAt: now},
	}
	if s := Compute(hot, 0, DefaultSourceWeights(), now); !s.Trending {
		t.Errorf("recent viral spike should be trending (viral=%f)", s.Viral)
	}

	// Same engagement, but months old: decay kills the viral score and the
	// latest mention is outside the window.
	stale := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 5000, CommentCount: 800, PostedAt: daysAgo(now, 90), ScrapedAt: now.Add(-90 * 24 * time.Hour)},
	}
	if s := Compute(stale, 0, DefaultSourceWeights(), now); s.Trending {
		t.Errorf("stale mentions must not be trending (viral=%f)", s.Viral)
	}
}

func TestViralScore_SourceDiversityBonus(t *testing.T) {
	now := time.Now()
	single := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 100, PostedAt: daysAgo(now, 1), ScrapedAt: now},
		{SourceType: types.SourceReddit, Upvotes: 100, PostedAt: daysAgo(now, 1), ScrapedAt: now},
	}
	mixed := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 100, PostedAt: daysAgo(now, 1), ScrapedAt: now},
		{SourceType: types.SourceBlogTO, Upvotes: 100, PostedAt: daysAgo(now, 1), ScrapedAt: now},
	}

	if s, m := viralScore(single, now), viralScore(mixed, now); m <= s {
		t.Errorf("cross-source mentions should outrank same totals from one source: single=%f mixed=%f", s, m)
	}
}

func TestLoadSourceWeights_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := "credibility:\n  reddit: 0.95\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing weights file: %v", err)
	}

	w, err := LoadSourceWeights(path)
	if err != nil {
		t.Fatalf("LoadSourceWeights: %v", err)
	}
	if w.CredibilityFor(types.SourceReddit) != 0.95 {
		t.Errorf("reddit credibility = %f, want 0.95", w.CredibilityFor(types.SourceReddit))
	}
	// Unlisted entries in an overridden section keep their defaults too:
	// overriding reddit must not demote the food press to the fallback weight.
	if w.CredibilityFor(types.SourceEater) != 1.0 {
		t.Errorf("eater credibility = %f, want the default 1.0 preserved", w.CredibilityFor(types.SourceEater))
	}
	// Untouched sections keep their defaults.
	if !w.IsProfessional(types.SourceEater) {
		t.Errorf("eater should remain professional after partial override")
	}
	if w.CredibilityFor(types.SourceType("unknown")) != 0.5 {
		t.Errorf("default credibility = %f, want 0.5", w.CredibilityFor(types.SourceType("unknown")))
	}
}
