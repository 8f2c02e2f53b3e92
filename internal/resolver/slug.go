package resolver

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
)

const maxSlugAttempts = 50

// Slugify renders a restaurant name as a URL-safe slug: lower-case ASCII
// letters, digits, and hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if out, _, err := transform.String(diacriticsRemover, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true
	for _, r := range s {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// SlugChecker reports whether a slug is already taken.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// UniqueSlug returns a slug for name that does not collide with any existing
// restaurant, suffixing -2, -3, ... until a free one is found. Slugs are
// assigned once at creation and never rewritten, so links stay stable.
func UniqueSlug(ctx context.Context, checker SlugChecker, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "restaurant"
	}

	slug := base
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := checker.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}
