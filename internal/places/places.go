// Package places enriches restaurants with mapping data: address,
// coordinates, external rating and price level. Enrichment is best-effort
// and authoritative for geography: once it fills a location field, later
// mentions never overwrite it.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrPlaceNotFound means the provider has no listing matching the query.
	ErrPlaceNotFound = errors.New("place not found")

	// ErrEnrichmentUnavailable means the provider could not be reached or
	// answered with an error. Callers skip enrichment and continue.
	ErrEnrichmentUnavailable = errors.New("enrichment service unavailable")
)

// Place is the provider's view of a restaurant.
type Place struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	PriceLevel   int      `json:"price_level,omitempty"` // 1..4, 0 when unknown
	Rating       *float64 `json:"rating,omitempty"`      // external 0..5 rating
	ReviewsCount int      `json:"reviews_count,omitempty"`
	MapsURL      string   `json:"maps_url,omitempty"`
	PhotoURL     string   `json:"photo_url,omitempty"`
}

// Client looks up restaurants in an external mapping service.
type Client interface {
	// FindPlace resolves a restaurant name within a city. Returns
	// ErrPlaceNotFound when the provider has no match and
	// ErrEnrichmentUnavailable on transport or provider errors.
	FindPlace(ctx context.Context, name, city string) (*Place, error)
}

// torontoNeighborhoods are matched against returned addresses to tag
// restaurants with a recognizable area name.
var torontoNeighborhoods = []string{
	"Downtown", "Yorkville", "Kensington Market", "Queen West", "King West",
	"Leslieville", "The Beaches", "Danforth", "Little Italy", "Little Portugal",
	"Chinatown", "Koreatown", "Greektown", "Roncesvalles", "High Park",
	"Annex", "Bloor West Village", "Junction", "Parkdale", "Liberty Village",
	"Distillery District", "St. Lawrence Market", "Financial District",
	"Entertainment District", "Harbourfront", "Cabbagetown", "Riverdale",
	"North York", "Scarborough", "Etobicoke", "Midtown", "Yonge and Eglinton",
}

// ExtractNeighborhood pulls a known neighborhood out of a formatted address,
// falling back to the second comma-separated component when it doesn't look
// like a province or the city itself.
func ExtractNeighborhood(address string) string {
	lower := strings.ToLower(address)
	for _, n := range torontoNeighborhoods {
		if strings.Contains(lower, strings.ToLower(n)) {
			return n
		}
	}

	parts := strings.Split(address, ",")
	if len(parts) >= 2 {
		candidate := strings.TrimSpace(parts[1])
		if candidate != "" && !strings.HasPrefix(candidate, "ON") && !strings.HasPrefix(candidate, "Toronto") {
			return candidate
		}
	}
	return ""
}

// HTTPClient talks to a Places-style REST API over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config holds mapping provider configuration.
type Config struct {
	// BaseURL of the provider's find-place endpoint host.
	BaseURL string

	// APIKey authenticates requests. Required.
	APIKey string

	// Timeout is the per-request timeout (default: 5s).
	Timeout time.Duration
}

// NewHTTPClient creates a Client against a Google Places compatible API.
func NewHTTPClient(config Config) (*HTTPClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("places client requires an API key")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://maps.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		client:  &http.Client{Timeout: config.Timeout},
	}, nil
}

type findPlaceResponse struct {
	Status     string `json:"status"`
	Candidates []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		PriceLevel       int      `json:"price_level"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		Photos           []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"candidates"`
}

// FindPlace queries the provider's findplacefromtext endpoint for
// "<name> restaurant <city>" and maps the first candidate.
func (c *HTTPClient) FindPlace(ctx context.Context, name, city string) (*Place, error) {
	params := url.Values{}
	params.Set("input", fmt.Sprintf("%s restaurant %s", name, city))
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id,name,formatted_address,geometry,price_level,rating,user_ratings_total,photos")
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + "/maps/api/place/findplacefromtext/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrichmentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrEnrichmentUnavailable, resp.StatusCode)
	}

	var data findPlaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnrichmentUnavailable, err)
	}

	switch data.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, fmt.Errorf("%w: %s in %s", ErrPlaceNotFound, name, city)
	default:
		return nil, fmt.Errorf("%w: provider status %s", ErrEnrichmentUnavailable, data.Status)
	}
	if len(data.Candidates) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrPlaceNotFound, name, city)
	}

	candidate := data.Candidates[0]
	place := &Place{
		PlaceID:      candidate.PlaceID,
		Name:         candidate.Name,
		Address:      candidate.FormattedAddress,
		Neighborhood: ExtractNeighborhood(candidate.FormattedAddress),
		Lat:          candidate.Geometry.Location.Lat,
		Lng:          candidate.Geometry.Location.Lng,
		PriceLevel:   candidate.PriceLevel,
		Rating:       candidate.Rating,
		ReviewsCount: candidate.UserRatingsTotal,
		MapsURL:      "https://www.google.com/maps/place/?q=place_id:" + candidate.PlaceID,
	}
	if len(candidate.Photos) > 0 && candidate.Photos[0].PhotoReference != "" {
		place.PhotoURL = c.photoURL(candidate.Photos[0].PhotoReference, 400)
	}
	return place, nil
}

func (c *HTTPClient) photoURL(photoReference string, maxWidth int) string {
	params := url.Values{}
	params.Set("maxwidth", fmt.Sprint(maxWidth))
	params.Set("photo_reference", photoReference)
	params.Set("key", c.apiKey)
	return c.baseURL + "/maps/api/place/photo?" + params.Encode()
}
