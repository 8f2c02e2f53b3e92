package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractNeighborhood(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"214 Augusta Ave, Kensington Market, Toronto, ON", "Kensington Market"},
		{"123 Queen St W, queen west, Toronto", "Queen West"},
		{"55 Somewhere Rd, Weston, Toronto, ON", "Weston"},
		{"55 Somewhere Rd, ON M5V 2B3", ""},
		{"55 Somewhere Rd, Toronto", ""},
		{"55 Somewhere Rd", ""},
	}
	for _, tc := range cases {
		if got := ExtractNeighborhood(tc.address); got != tc.want {
			t.Errorf("ExtractNeighborhood(%q) = %q, want %q", tc.address, got, tc.want)
		}
	}
}

func TestNewHTTPClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewHTTPClient(Config{}); err == nil {
		t.Error("missing API key should be rejected")
	}
}

func newProviderClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestFindPlace(t *testing.T) {
	client := newProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("input"); got != "Ramen House restaurant toronto" {
			t.Errorf("input = %q", got)
		}
		fmt.Fprint(w, `{
			"status": "OK",
			"candidates": [{
				"place_id": "place-123",
				"name": "Ramen House",
				"formatted_address": "214 Augusta Ave, Kensington Market, Toronto, ON",
				"geometry": {"location": {"lat": 43.65, "lng": -79.40}},
				"price_level": 2,
				"rating": 4.5,
				"user_ratings_total": 812,
				"photos": [{"photo_reference": "photo-abc"}]
			}]
		}`)
	})

	place, err := client.FindPlace(context.Background(), "Ramen House", "toronto")
	if err != nil {
		t.Fatalf("FindPlace: %v", err)
	}
	if place.PlaceID != "place-123" {
		t.Errorf("place_id = %q, want place-123", place.PlaceID)
	}
	if place.Neighborhood != "Kensington Market" {
		t.Errorf("neighborhood = %q, want Kensington Market", place.Neighborhood)
	}
	if place.Lat != 43.65 || place.Lng != -79.40 {
		t.Errorf("location = %f,%f", place.Lat, place.Lng)
	}
	if place.Rating == nil || *place.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5", place.Rating)
	}
	if place.PhotoURL == "" {
		t.Error("photo reference should produce a photo URL")
	}
}

func TestFindPlace_ZeroResults(t *testing.T) {
	client := newProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "candidates": []}`)
	})

	_, err := client.FindPlace(context.Background(), "Nonexistent", "toronto")
	if !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("want ErrPlaceNotFound, got %v", err)
	}
}

func TestFindPlace_ProviderError(t *testing.T) {
	client := newProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FindPlace(context.Background(), "Ramen House", "toronto")
	if !errors.Is(err, ErrEnrichmentUnavailable) {
		t.Errorf("want ErrEnrichmentUnavailable, got %v", err)
	}
}
