package resolver

import "strings"

// Match decision thresholds on normalized-name similarity. Scores at or
// above MatchThreshold merge into the existing restaurant. Scores in
// [ReviewFloor, MatchThreshold) are ambiguous: logged, then treated as a
// new entity unless location evidence raises confidence.
const (
	MatchThreshold = 0.85
	ReviewFloor    = 0.75
)

// Similarity scores how likely two normalized restaurant names refer to the
// same establishment, in [0, 1].
type Similarity interface {
	Score(a, b string) float64
}

// TokenJaccard measures token-set overlap between normalized names. It is
// insensitive to word order and robust to one extra or missing token, which
// covers most scraped-name variation ("sushi kaji" vs "kaji sushi").
type TokenJaccard struct{}

func (TokenJaccard) Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
