// Package handlers provides the HTTP handlers and middleware for the
// BellyBuzz API.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/bellybuzz/bellybuzz/internal/query"
	"github.com/bellybuzz/bellybuzz/internal/storage"
)

// API bundles the handlers for the read-side HTTP surface.
type API struct {
	store  storage.Store
	ranker *query.Ranker
}

// NewAPI creates the API handler set.
func NewAPI(store storage.Store, ranker *query.Ranker) *API {
	return &API{store: store, ranker: ranker}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// parseInt parses an integer from a string, returning defaultValue when
// parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; just log.
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error envelope with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	})
}
