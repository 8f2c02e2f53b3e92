package signals

import (
	"reflect"
	"testing"
	"time"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func TestCompute_Empty(t *testing.T) {
	sig := Compute(nil)
	if sig.MentionCount != 0 || sig.MeanSentiment != 0 || sig.LatestMentionAt != nil {
		t.Errorf("empty mention set should produce zero signals, got %+v", sig)
	}
}

func TestCompute_MeanSentimentOverScoredOnly(t *testing.T) {
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.9)},
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.3)},
		{SourceType: types.SourceBlog}, // no sentiment, must not drag the mean
	}

	sig := Compute(mentions)
	if sig.MentionCount != 3 {
		t.Errorf("MentionCount = %d, want 3", sig.MentionCount)
	}
	if sig.ScoredMentions != 2 {
		t.Errorf("ScoredMentions = %d, want 2", sig.ScoredMentions)
	}
	if sig.MeanSentiment != 0.6 {
		t.Errorf("MeanSentiment = %f, want 0.6", sig.MeanSentiment)
	}
}

func TestCompute_NoScoredMentionsMeansZero(t *testing.T) {
	sig := Compute([]types.Mention{{SourceType: types.SourceReddit}})
	if sig.MeanSentiment != 0 {
		t.Errorf("MeanSentiment = %f, want 0 when no mention carries sentiment", sig.MeanSentiment)
	}
}

func TestCompute_EngagementAndSources(t *testing.T) {
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, Upvotes: 50, CommentCount: 10},
		{SourceType: types.SourceReddit, Upvotes: 5, CommentCount: 1},
		{SourceType: types.SourceBlogTO, Upvotes: 0, CommentCount: 0},
	}

	sig := Compute(mentions)
	if sig.TotalUpvotes != 55 || sig.TotalComments != 11 {
		t.Errorf("engagement totals = %d/%d, want 55/11", sig.TotalUpvotes, sig.TotalComments)
	}
	if sig.DistinctSources != 2 {
		t.Errorf("DistinctSources = %d, want 2", sig.DistinctSources)
	}
	if sig.PerSource[types.SourceReddit] != 2 {
		t.Errorf("PerSource[reddit] = %d, want 2", sig.PerSource[types.SourceReddit])
	}
}

func TestCompute_LatestMentionFallsBackToScrapeTime(t *testing.T) {
	posted := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	scraped := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	mentions := []types.Mention{
		{SourceType: types.SourceReddit, PostedAt: &posted, ScrapedAt: posted},
		{SourceType: types.SourceBlog, ScrapedAt: scraped}, // no posted time
	}

	sig := Compute(mentions)
	if sig.LatestMentionAt == nil || !sig.LatestMentionAt.Equal(scraped) {
		t.Errorf("LatestMentionAt = %v, want %v", sig.LatestMentionAt, scraped)
	}
}

// Recomputing twice with no new mentions must yield identical aggregates.
func TestCompute_Idempotent(t *testing.T) {
	posted := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	mentions := []types.Mention{
		{SourceType: types.SourceReddit, SentimentScore: ptr(0.8), Upvotes: 12, PostedAt: &posted, ScrapedAt: posted},
		{SourceType: types.SourceEater, SentimentScore: ptr(0.95), Upvotes: 3, PostedAt: &posted, ScrapedAt: posted},
	}

	first := Compute(mentions)
	second := Compute(mentions)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation drifted:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestApply(t *testing.T) {
	now := time.Now()
	sig := Signals{
		MentionCount:    4,
		DistinctSources: 2,
		TotalUpvotes:    100,
		TotalComments:   20,
		MeanSentiment:   0.75,
		LatestMentionAt: &now,
	}

	var r types.Restaurant
	sig.Apply(&r)

	if r.MentionCount != 4 || r.DistinctSources != 2 || r.MeanSentiment != 0.75 {
		t.Errorf("Apply did not copy aggregates: %+v", r)
	}
	if r.LatestMentionAt == nil || !r.LatestMentionAt.Equal(now) {
		t.Errorf("Apply did not copy latest mention time")
	}
}
