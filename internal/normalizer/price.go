package normalizer

import "strings"

// PriceTier converts a free-text price hint and an optional external price
// level into a 1-4 tier. The external provider's level wins when present;
// otherwise the hint is matched against dollar-sign runs and common wording.
// Unknown input defaults to tier 2.
func PriceTier(hint string, externalLevel int) int {
	if externalLevel >= 1 && externalLevel <= 4 {
		return externalLevel
	}
	if externalLevel > 4 {
		return 4
	}

	h := strings.ToLower(hint)
	switch {
	case h == "":
		return 2
	case strings.Contains(h, "$$$$"), containsAny(h, "expensive", "splurge", "pricey"):
		return 4
	case strings.Contains(h, "$$$"), strings.Contains(h, "upscale"):
		return 3
	case strings.Contains(h, "$$"), strings.Contains(h, "moderate"):
		return 2
	case strings.Contains(h, "$"), containsAny(h, "cheap", "affordable", "budget"):
		return 1
	}
	return 2
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
