package normalizer

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func validMeta() SourceMeta {
	return SourceMeta{
		SourceType: types.SourceReddit,
		SourceURL:  "https://reddit.com/r/FoodToronto/abc123",
		RawText:    "the ramen here is incredible",
		Upvotes:    10,
	}
}

func TestBuild_EmptyNameIsInvalid(t *testing.T) {
	_, err := Build(Extraction{Name: "   "}, validMeta(), time.Now())
	if !errors.Is(err, ErrExtractionInvalid) {
		t.Errorf("empty name should be ErrExtractionInvalid, got %v", err)
	}
}

func TestBuild_MissingSourceURLIsInvalid(t *testing.T) {
	meta := validMeta()
	meta.SourceURL = " "
	_, err := Build(Extraction{Name: "Ramen House"}, meta, time.Now())
	if !errors.Is(err, ErrExtractionInvalid) {
		t.Errorf("missing source URL should be ErrExtractionInvalid, got %v", err)
	}
}

func TestBuild_SentimentConversion(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0.5},
		{1, 1},
		{0.2, 0.6},
		{-2.5, 0},  // clamped below range
		{3.7, 1.0}, // clamped above range
	}
	for _, tc := range cases {
		m, err := Build(Extraction{Name: "Ramen House", Sentiment: ptr(tc.in)}, validMeta(), time.Now())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if m.SentimentScore == nil || *m.SentimentScore != tc.want {
			t.Errorf("sentiment %f stored as %v, want %f", tc.in, m.SentimentScore, tc.want)
		}
	}
}

func TestBuild_NoSentimentStaysNil(t *testing.T) {
	m, err := Build(Extraction{Name: "Ramen House"}, validMeta(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.SentimentScore != nil {
		t.Errorf("absent sentiment should stay nil, got %v", *m.SentimentScore)
	}
}

func TestBuild_NegativeEngagementDefaultsToZero(t *testing.T) {
	meta := validMeta()
	meta.Upvotes = -5
	meta.CommentCount = -1

	m, err := Build(Extraction{Name: "Ramen House"}, meta, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Upvotes != 0 || m.CommentCount != 0 {
		t.Errorf("negative engagement should normalize to 0, got %d/%d", m.Upvotes, m.CommentCount)
	}
}

func TestBuild_TruncatesOversizedRawText(t *testing.T) {
	meta := validMeta()
	meta.RawText = strings.Repeat("x", maxRawTextBytes+500)

	m, err := Build(Extraction{Name: "Ramen House"}, meta, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.RawText) != maxRawTextBytes {
		t.Errorf("raw text length = %d, want %d", len(m.RawText), maxRawTextBytes)
	}
}

func TestBuild_TruncationKeepsValidUTF8(t *testing.T) {
	// A two-byte rune straddling the byte cap must be dropped whole, never
	// split into a dangling lead byte.
	meta := validMeta()
	meta.RawText = strings.Repeat("x", maxRawTextBytes-1) + "éé"

	m, err := Build(Extraction{Name: "Ramen House"}, meta, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !utf8.ValidString(m.RawText) {
		t.Error("truncated raw text is not valid UTF-8")
	}
	if len(m.RawText) != maxRawTextBytes-1 {
		t.Errorf("raw text length = %d, want %d with the straddling rune dropped", len(m.RawText), maxRawTextBytes-1)
	}
}

func TestBuild_DedupesTags(t *testing.T) {
	ex := Extraction{
		Name:     "Ramen House",
		Cuisines: []string{"Japanese", "japanese", " Ramen ", ""},
		Dishes:   []string{"Tonkotsu", "tonkotsu"},
	}
	m, err := Build(ex, validMeta(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.CuisineTags) != 2 {
		t.Errorf("CuisineTags = %v, want 2 distinct entries", m.CuisineTags)
	}
	if len(m.DishesMentioned) != 1 {
		t.Errorf("DishesMentioned = %v, want 1 distinct entry", m.DishesMentioned)
	}
}

func TestBuild_AspectsConverted(t *testing.T) {
	ex := Extraction{
		Name:    "Ramen House",
		Aspects: map[string]float64{"Food": 1.0, "service": -1.0},
	}
	m, err := Build(ex, validMeta(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Aspects["food"] != 1.0 {
		t.Errorf("aspect food = %f, want 1.0 (keys lowered, values converted)", m.Aspects["food"])
	}
	if m.Aspects["service"] != 0.0 {
		t.Errorf("aspect service = %f, want 0.0", m.Aspects["service"])
	}
}
