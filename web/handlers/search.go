package handlers

import (
	"net/http"
	"strings"

	"github.com/bellybuzz/bellybuzz/internal/query"
	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// Search handles GET /api/search - ranked restaurant search.
//
// Query parameters:
//   - q            - free-text query (optional; omit for structured browsing)
//   - city         - restrict to one city
//   - neighborhood - restrict to one neighborhood
//   - price_min    - minimum price tier (1-4)
//   - price_max    - maximum price tier (1-4)
//   - cuisines     - comma-separated cuisine tags (matches any)
//   - sort         - buzz_score | sentiment_score | viral_score | rating | mention_count
//   - order        - asc | desc (default desc)
//   - limit        - results per page (default 20, max 100)
//   - offset       - results to skip
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	req := query.Request{
		Query:   params.Get("q"),
		Filters: filtersFromParams(params.Get("city"), params),
	}

	resp, err := a.ranker.Search(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if resp.Restaurants == nil {
		resp.Restaurants = []types.Restaurant{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Trending handles GET /api/trending - restaurants with a recent viral
// spike, strongest first.
//
// Query parameters:
//   - city  - restrict to one city
//   - limit - maximum results (default 10)
func (a *API) Trending(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	restaurants, err := a.ranker.Trending(r.Context(), params.Get("city"), parseInt(params.Get("limit"), 10))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "trending lookup failed")
		return
	}
	if restaurants == nil {
		restaurants = []types.Restaurant{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": restaurants,
		"total":       len(restaurants),
	})
}

// Cuisines handles GET /api/cuisines - the distinct cuisine tags available
// for filtering.
func (a *API) Cuisines(w http.ResponseWriter, r *http.Request) {
	city := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("city")))
	cuisines, err := a.store.ListCuisines(r.Context(), city)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cuisine lookup failed")
		return
	}
	if cuisines == nil {
		cuisines = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cuisines": cuisines,
	})
}

func filtersFromParams(city string, params interface{ Get(string) string }) storage.Filters {
	f := storage.Filters{
		City:         strings.ToLower(strings.TrimSpace(city)),
		Neighborhood: strings.TrimSpace(params.Get("neighborhood")),
		PriceMin:     parseInt(params.Get("price_min"), 0),
		PriceMax:     parseInt(params.Get("price_max"), 0),
		SortBy:       types.SortBy(params.Get("sort")),
		SortOrder:    types.SortOrder(params.Get("order")),
		Limit:        parseInt(params.Get("limit"), 20),
		Offset:       parseInt(params.Get("offset"), 0),
	}

	if raw := params.Get("cuisines"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				f.Cuisines = append(f.Cuisines, c)
			}
		}
	}
	return f
}
