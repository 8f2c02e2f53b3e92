package resolver

import (
	"math"
	"testing"
)

func TestTokenJaccard(t *testing.T) {
	sim := TokenJaccard{}
	cases := []struct {
		a, b string
		want float64
	}{
		{"ramen house", "ramen house", 1},
		{"sushi kaji", "kaji sushi", 1}, // word order is irrelevant
		{"ramen house toronto", "ramen house", 2.0 / 3.0},
		{"ramen house", "pizza palace", 0},
		{"ramen", "", 0},
		{"", "", 0},
	}
	for _, tc := range cases {
		if got := sim.Score(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Score(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTokenJaccard_OneExtraTokenClearsThreshold(t *testing.T) {
	sim := TokenJaccard{}
	// Three shared tokens with one extra should merge; one shared token out
	// of two should not.
	if got := sim.Score("golden pig bbq house", "golden pig bbq"); got < ReviewFloor {
		t.Errorf("near-identical names scored %f, below review floor %f", got, ReviewFloor)
	}
	if got := sim.Score("golden pig", "golden dragon"); got >= ReviewFloor {
		t.Errorf("weakly related names scored %f, at or above review floor %f", got, ReviewFloor)
	}
}
