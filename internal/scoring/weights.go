package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// SourceWeights is the source-type-to-weight table used by the scoring
// engine. Which sources count as "professional" is deliberately
// configuration, not code: the classification is editorial, not technical.
type SourceWeights struct {
	// Credibility maps a source type to its weight in sentiment averaging.
	Credibility map[types.SourceType]float64 `yaml:"credibility"`

	// Professional marks source types whose mentions feed the
	// professional-review score.
	Professional map[types.SourceType]bool `yaml:"professional"`

	// Default is the credibility applied to unknown source types.
	Default float64 `yaml:"default"`
}

// DefaultSourceWeights returns the built-in weight table, mirroring the
// editorial ranking the system shipped with: established food press at full
// weight, community sources discounted.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{
		Credibility: map[types.SourceType]float64{
			types.SourceEater:       1.0,
			types.SourceTorontoLife: 1.0,
			types.SourceBlogTO:      0.9,
			types.SourceBlog:        0.8,
			types.SourceReddit:      0.7,
			types.SourceInstagram:   0.6,
			types.SourceManual:      0.5,
		},
		Professional: map[types.SourceType]bool{
			types.SourceEater:       true,
			types.SourceTorontoLife: true,
			types.SourceBlogTO:      true,
		},
		Default: 0.5,
	}
}

// CredibilityFor returns the credibility weight for a source type.
func (w SourceWeights) CredibilityFor(s types.SourceType) float64 {
	if v, ok := w.Credibility[s]; ok {
		return v
	}
	return w.Default
}

// IsProfessional reports whether a source type counts as professional press.
func (w SourceWeights) IsProfessional(s types.SourceType) bool {
	return w.Professional[s]
}

// LoadSourceWeights reads a weight table from a YAML file. Entries merge
// over the defaults per key, so a partial override file is valid.
func LoadSourceWeights(path string) (SourceWeights, error) {
	w := DefaultSourceWeights()

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("scoring: read weights file: %w", err)
	}

	var loaded SourceWeights
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return w, fmt.Errorf("scoring: parse weights file %s: %w", path, err)
	}

	// Overrides merge per key: listing one source leaves the rest at their
	// default weights.
	for k, v := range loaded.Credibility {
		w.Credibility[k] = v
	}
	for k, v := range loaded.Professional {
		w.Professional[k] = v
	}
	if loaded.Default > 0 {
		w.Default = loaded.Default
	}

	return w, nil
}
