package resolver

import (
	"context"
	"testing"
)

type fakeSlugChecker struct {
	taken map[string]bool
}

func (f *fakeSlugChecker) SlugExists(_ context.Context, slug string) (bool, error) {
	return f.taken[slug], nil
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ramen House", "ramen-house"},
		{"Café Crème & Co.", "cafe-creme-co"},
		{"  Joe's BBQ!  ", "joe-s-bbq"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()
	checker := &fakeSlugChecker{taken: map[string]bool{
		"ramen-house":   true,
		"ramen-house-2": true,
	}}

	slug, err := UniqueSlug(ctx, checker, "Ramen House")
	if err != nil {
		t.Fatalf("UniqueSlug: %v", err)
	}
	if slug != "ramen-house-3" {
		t.Errorf("slug = %q, want ramen-house-3", slug)
	}
}

func TestUniqueSlug_EmptyNameFallsBack(t *testing.T) {
	slug, err := UniqueSlug(context.Background(), &fakeSlugChecker{taken: map[string]bool{}}, "!!!")
	if err != nil {
		t.Fatalf("UniqueSlug: %v", err)
	}
	if slug != "restaurant" {
		t.Errorf("slug = %q, want restaurant", slug)
	}
}
