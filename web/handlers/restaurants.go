package handlers

import (
	"errors"
	"net/http"

	"github.com/bellybuzz/bellybuzz/internal/storage"
	"github.com/bellybuzz/bellybuzz/pkg/types"
)

// recentMentionLimit caps the mention list on the detail response.
const recentMentionLimit = 20

// RestaurantDetail is the detail payload: the restaurant plus its most
// recent mentions as evidence for the scores.
type RestaurantDetail struct {
	Restaurant *types.Restaurant `json:"restaurant"`
	Mentions   []types.Mention   `json:"mentions"`
}

// GetRestaurant handles GET /api/restaurants/{key} where key is a
// restaurant ID or slug.
func (a *API) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing restaurant identifier")
		return
	}

	restaurant, err := a.store.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		restaurant, err = a.store.GetBySlug(r.Context(), key)
	}
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "restaurant not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "restaurant lookup failed")
		return
	}

	mentions, err := a.store.ListByRestaurant(r.Context(), restaurant.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "mention lookup failed")
		return
	}
	if len(mentions) > recentMentionLimit {
		mentions = mentions[:recentMentionLimit]
	}
	if mentions == nil {
		mentions = []types.Mention{}
	}

	respondJSON(w, http.StatusOK, RestaurantDetail{
		Restaurant: restaurant,
		Mentions:   mentions,
	})
}

// Health handles GET /api/health.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
