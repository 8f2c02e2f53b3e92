package normalizer

import "testing"

func TestPriceTier(t *testing.T) {
	cases := []struct {
		name          string
		hint          string
		externalLevel int
		want          int
	}{
		{"external level wins", "cheap eats", 3, 3},
		{"external level capped", "", 7, 4},
		{"zero external falls through", "$$", 0, 2},
		{"empty hint defaults", "", 0, 2},
		{"four dollar signs", "$$$$", 0, 4},
		{"splurge wording", "worth the splurge", 0, 4},
		{"three dollar signs", "$$$", 0, 3},
		{"upscale wording", "Upscale spot", 0, 3},
		{"single dollar sign", "$ menu", 0, 1},
		{"budget wording", "great budget option", 0, 1},
		{"unknown wording defaults", "fine I guess", 0, 2},
	}
	for _, tc := range cases {
		if got := PriceTier(tc.hint, tc.externalLevel); got != tc.want {
			t.Errorf("%s: PriceTier(%q, %d) = %d, want %d", tc.name, tc.hint, tc.externalLevel, got, tc.want)
		}
	}
}
