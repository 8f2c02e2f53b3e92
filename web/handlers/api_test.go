package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellybuzz/bellybuzz/internal/query"
	"github.com/bellybuzz/bellybuzz/internal/storage/sqlite"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

func newTestHandler(t *testing.T) (*sqlite.Store, http.Handler) {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	api := NewAPI(store, query.New(store, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", api.Search)
	mux.HandleFunc("GET /api/trending", api.Trending)
	mux.HandleFunc("GET /api/cuisines", api.Cuisines)
	mux.HandleFunc("GET /api/restaurants/{key}", api.GetRestaurant)
	mux.HandleFunc("GET /api/health", api.Health)
	return store, mux
}

func seedRestaurants(t *testing.T, store *sqlite.Store) {
	t.Helper()
	now := time.Now().UTC()
	fixtures := []types.Restaurant{
		{ID: "r-1", Name: "Ramen House", Slug: "ramen-house", City: "toronto",
			PriceTier: 2, CuisineTags: []string{"japanese", "ramen"}, BuzzScore: 15,
			ViralScore: 8, IsTrending: true, CreatedAt: now, UpdatedAt: now},
		{ID: "r-2", Name: "Pizza Palace", Slug: "pizza-palace", City: "toronto",
			PriceTier: 1, CuisineTags: []string{"italian"}, BuzzScore: 12,
			ViralScore: 2, CreatedAt: now, UpdatedAt: now},
		{ID: "r-3", Name: "Poutine Spot", Slug: "poutine-spot", City: "montreal",
			PriceTier: 1, CuisineTags: []string{"canadian"}, BuzzScore: 9,
			CreatedAt: now, UpdatedAt: now},
	}
	for i := range fixtures {
		require.NoError(t, store.Create(context.Background(), &fixtures[i]))
	}
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSearch(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	rec := doGet(t, h, "/api/search?city=toronto")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp query.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Restaurants, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "ramen-house", resp.Restaurants[0].Slug, "default sort is buzz descending")
	assert.False(t, resp.Semantic)
}

func TestSearch_CuisineAndPriceFilters(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	rec := doGet(t, h, "/api/search?cuisines=ramen,sushi&price_min=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp query.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Restaurants, 1)
	assert.Equal(t, "ramen-house", resp.Restaurants[0].Slug)
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doGet(t, h, "/api/search?city=nowhere")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"restaurants":[]`)
}

func TestTrending(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	rec := doGet(t, h, "/api/trending?city=toronto")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Restaurants []types.Restaurant `json:"restaurants"`
		Total       int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "ramen-house", resp.Restaurants[0].Slug)
}

func TestTrending_CityCaseInsensitive(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	// Entities store the city lower-cased; a capitalized query param must
	// still hit them.
	rec := doGet(t, h, "/api/trending?city=Toronto")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Restaurants []types.Restaurant `json:"restaurants"`
		Total       int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "ramen-house", resp.Restaurants[0].Slug)
}

func TestCuisines(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	rec := doGet(t, h, "/api/cuisines?city=toronto")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cuisines []string `json:"cuisines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"italian", "japanese", "ramen"}, resp.Cuisines)
}

func TestCuisines_CityCaseInsensitive(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	rec := doGet(t, h, "/api/cuisines?city=Toronto")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cuisines []string `json:"cuisines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"italian", "japanese", "ramen"}, resp.Cuisines)
}

func TestGetRestaurant(t *testing.T) {
	store, h := newTestHandler(t)
	seedRestaurants(t, store)

	require.NoError(t, store.Upsert(context.Background(), &types.Mention{
		ID: "m-1", RestaurantID: "r-1", SourceType: types.SourceReddit,
		SourceURL: "https://reddit.com/post1", RestaurantName: "Ramen House",
		ScrapedAt: time.Now().UTC(),
	}))

	for _, key := range []string{"r-1", "ramen-house"} {
		rec := doGet(t, h, "/api/restaurants/"+key)
		require.Equal(t, http.StatusOK, rec.Code, "lookup by %s", key)

		var detail RestaurantDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		assert.Equal(t, "r-1", detail.Restaurant.ID)
		assert.Len(t, detail.Mentions, 1)
	}
}

func TestGetRestaurant_NotFound(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doGet(t, h, "/api/restaurants/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "restaurant not found", resp.Error)
}

func TestHealth(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doGet(t, h, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	SecurityHeaders(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestRateLimiter(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := NewRateLimiter(1, 2).Middleware(inner)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
