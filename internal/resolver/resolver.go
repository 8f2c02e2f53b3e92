// Package resolver maps normalized mentions onto canonical restaurant
// entities. A mention either merges into an existing restaurant or seeds a
// new one; the decision runs on normalized-name similarity with optional
// geographic evidence, favoring precision over recall since an erroneous
// merge is much harder to undo than a duplicate entity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bellybuzz/bellybuzz/internal/normalizer"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// ErrResolutionAmbiguous indicates the candidate set could not be narrowed
// to a confident match or a confident non-match.
var ErrResolutionAmbiguous = errors.New("resolution ambiguous")

const (
	// proximityRadiusKm bounds how far apart two locations can be while
	// still counting as geographic evidence for the same establishment.
	proximityRadiusKm = 2.0

	// maxUpdateRetries bounds optimistic-concurrency retries on merge.
	maxUpdateRetries = 3
)

// Hint carries resolution context that the mention itself does not: the city
// the mention was scraped for and, when extraction produced one, a rough
// location.
type Hint struct {
	City string
	Lat  *float64
	Lng  *float64
}

// Result reports how a mention was resolved.
type Result struct {
	Restaurant *types.Restaurant
	Created    bool    // true when a new entity was seeded
	Similarity float64 // score against the winning candidate; 1.0 on exact match
}

// Resolver matches mentions to restaurants.
type Resolver struct {
	store      storage.RestaurantStore
	similarity Similarity
	creating   *keyedMutex
}

// New returns a Resolver backed by the given store, using token-set Jaccard
// similarity unless sim overrides it.
func New(store storage.RestaurantStore, sim Similarity) *Resolver {
	if sim == nil {
		sim = TokenJaccard{}
	}
	return &Resolver{
		store:      store,
		similarity: sim,
		creating:   newKeyedMutex(),
	}
}

// Resolve decides which restaurant the mention refers to, creating a new one
// when no existing candidate clears the match threshold. On a match it
// applies the merge policy and persists the result. The returned restaurant
// always has m's identity attributes reconciled into it.
func (r *Resolver) Resolve(ctx context.Context, m *types.Mention, hint Hint) (*Result, error) {
	normalized := NormalizeName(m.RestaurantName)
	if normalized == "" {
		return nil, fmt.Errorf("%w: name %q normalizes to nothing", ErrResolutionAmbiguous, m.RestaurantName)
	}
	city := strings.ToLower(strings.TrimSpace(hint.City))
	if city == "" {
		return nil, fmt.Errorf("%w: no city for mention %s", ErrResolutionAmbiguous, m.SourceURL)
	}

	candidates, err := r.store.ListByCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("listing candidates in %s: %w", city, err)
	}

	best, score := r.pickCandidate(normalized, hint, candidates)
	if best != nil {
		merged, err := r.merge(ctx, best.ID, m, hint)
		if err != nil {
			return nil, err
		}
		return &Result{Restaurant: merged, Similarity: score}, nil
	}

	restaurant, created, err := r.create(ctx, m, hint, city, normalized)
	if err != nil {
		return nil, err
	}
	return &Result{Restaurant: restaurant, Created: created}, nil
}

// pickCandidate returns the winning candidate, or nil when a new entity
// should be created. Candidates are scored by normalized-name similarity;
// geographic proximity to the hint lowers the acceptance bar, since two
// similarly named places at the same corner are almost certainly one place.
func (r *Resolver) pickCandidate(normalized string, hint Hint, candidates []types.Restaurant) (*types.Restaurant, float64) {
	type scored struct {
		restaurant *types.Restaurant
		score      float64
	}

	var accepted []scored
	var nearMiss *scored

	for i := range candidates {
		c := &candidates[i]
		score := r.similarity.Score(normalized, NormalizeName(c.Name))
		if score >= 1.0 {
			// Exact normalized match wins outright over fuzzy candidates.
			return c, score
		}

		threshold := MatchThreshold
		if r.nearHint(hint, c) {
			threshold = ReviewFloor
		}

		switch {
		case score >= threshold:
			accepted = append(accepted, scored{c, score})
		case score >= ReviewFloor:
			if nearMiss == nil || score > nearMiss.score {
				nearMiss = &scored{c, score}
			}
		}
	}

	if len(accepted) == 0 {
		if nearMiss != nil {
			log.Printf("resolver: near-threshold match %q ~ %q (%.2f), creating new entity for review",
				normalized, nearMiss.restaurant.Name, nearMiss.score)
		}
		return nil, 0
	}

	// Highest similarity first, then most prior mentions: merge into the
	// more-established entity.
	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].score != accepted[j].score {
			return accepted[i].score > accepted[j].score
		}
		return accepted[i].restaurant.MentionCount > accepted[j].restaurant.MentionCount
	})
	return accepted[0].restaurant, accepted[0].score
}

func (r *Resolver) nearHint(hint Hint, c *types.Restaurant) bool {
	if hint.Lat == nil || hint.Lng == nil || !c.HasLocation() {
		return false
	}
	return haversineKm(*hint.Lat, *hint.Lng, c.Latitude, c.Longitude) <= proximityRadiusKm
}

// merge folds the mention's identity attributes into the matched restaurant
// under optimistic concurrency, retrying on version conflicts with fresh
// state each attempt.
func (r *Resolver) merge(ctx context.Context, restaurantID string, m *types.Mention, hint Hint) (*types.Restaurant, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		current, err := r.store.Get(ctx, restaurantID)
		if err != nil {
			return nil, fmt.Errorf("loading restaurant %s: %w", restaurantID, err)
		}

		if !applyMerge(current, m, hint) {
			// Nothing to write; identity attributes already subsume the
			// mention's. The caller still re-aggregates signals.
			return current, nil
		}

		err = r.store.Update(ctx, current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("merging into restaurant %s: %w", restaurantID, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("merging into restaurant %s: exhausted %d retries: %w", restaurantID, maxUpdateRetries, lastErr)
}

// applyMerge reconciles mention attributes into r in place and reports
// whether anything changed. The slug is never touched after creation, and
// the hint location fills coordinates only when they were empty: enrichment
// stays authoritative for geography.
func applyMerge(r *types.Restaurant, m *types.Mention, hint Hint) bool {
	changed := false

	if MoreComplete(m.RestaurantName, r.Name) {
		r.Name = strings.TrimSpace(m.RestaurantName)
		changed = true
	}

	if merged := unionTags(r.CuisineTags, m.CuisineTags); len(merged) != len(r.CuisineTags) {
		r.CuisineTags = merged
		changed = true
	}
	if merged := unionTags(r.RecommendedDishes, m.DishesMentioned); len(merged) != len(r.RecommendedDishes) {
		r.RecommendedDishes = merged
		changed = true
	}

	if r.Vibe == "" && m.VibeExtracted != "" {
		r.Vibe = m.VibeExtracted
		changed = true
	}
	if r.PriceTier == 0 && m.PriceHint != "" {
		r.PriceTier = normalizer.PriceTier(m.PriceHint, 0)
		changed = true
	}
	if !r.HasLocation() && hint.Lat != nil && hint.Lng != nil {
		r.Latitude = *hint.Lat
		r.Longitude = *hint.Lng
		changed = true
	}

	return changed
}

// create seeds a new restaurant from the mention under a per-(city, name)
// lock, so two concurrent mentions of the same new place yield one row. The
// candidate check is repeated inside the lock because a racing goroutine may
// have created the entity while this one was scoring candidates; when it
// did, create merges instead and reports created false.
func (r *Resolver) create(ctx context.Context, m *types.Mention, hint Hint, city, normalized string) (*types.Restaurant, bool, error) {
	key := city + "\x00" + normalized
	r.creating.Lock(key)
	defer r.creating.Unlock(key)

	candidates, err := r.store.ListByCity(ctx, city)
	if err != nil {
		return nil, false, fmt.Errorf("re-listing candidates in %s: %w", city, err)
	}
	for i := range candidates {
		if NormalizeName(candidates[i].Name) == normalized {
			merged, err := r.merge(ctx, candidates[i].ID, m, hint)
			return merged, false, err
		}
	}

	slug, err := UniqueSlug(ctx, r.store, m.RestaurantName)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	restaurant := &types.Restaurant{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(m.RestaurantName),
		Slug:              slug,
		City:              city,
		CuisineTags:       unionTags(nil, m.CuisineTags),
		RecommendedDishes: unionTags(nil, m.DishesMentioned),
		Vibe:              m.VibeExtracted,
		IsNew:             true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if m.PriceHint != "" {
		restaurant.PriceTier = normalizer.PriceTier(m.PriceHint, 0)
	}
	if hint.Lat != nil && hint.Lng != nil {
		restaurant.Latitude = *hint.Lat
		restaurant.Longitude = *hint.Lng
	}

	if err := r.store.Create(ctx, restaurant); err != nil {
		return nil, false, fmt.Errorf("creating restaurant %q: %w", restaurant.Name, err)
	}
	log.Printf("resolver: created restaurant %s (%s) in %s", restaurant.Name, restaurant.Slug, city)
	return restaurant, true, nil
}

// unionTags merges additions into existing, preserving existing order and
// deduplicating case-insensitively.
func unionTags(existing, additions []string) []string {
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing)+len(additions))
	for _, t := range existing {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	for _, t := range additions {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
