package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// GeocodeClient searches city names through the OpenWeatherMap geocoding API.
// It is shared by every session, so outbound calls go through one rate limiter.
type GeocodeClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGeocodeClient creates a geocoding client.
// rps is the maximum requests per second allowed, burst the maximum burst size.
func NewGeocodeClient(client *http.Client, apiKey string, rps float64, burst int) *GeocodeClient {
	cfg := defaultHTTPConfig(client)
	// Suggestions are disposable; a retry would usually land after the user typed again.
	cfg.Backoff.MaxRetries = 0

	return &GeocodeClient{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/geo/1.0/direct",
		httpCfg: cfg,
		circuit: newCircuitBreaker("geocode"),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Search returns display names for places matching query, in API relevance order.
// Errors are logged and reported as no matches.
func (g *GeocodeClient) Search(ctx context.Context, query string, limit int) []string {
	places, err := g.Lookup(ctx, query, limit)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("geocode: search failed for %q: %v", query, err)
		}
		return []string{}
	}

	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.DisplayName())
	}
	return names
}

// Lookup returns the raw geocoding matches for query.
func (g *GeocodeClient) Lookup(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if g.apiKey == "" {
		return nil, errNoAPIKey
	}
	if limit <= 0 {
		limit = 5
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("limit", strconv.Itoa(limit))
		values.Set("appid", g.apiKey)

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	places := make([]weather.Place, 0, len(payload))
	for _, item := range payload {
		places = append(places, weather.Place{
			Name:      item.Name,
			State:     item.State,
			Country:   item.Country,
			Latitude:  item.Lat,
			Longitude: item.Lon,
		})
	}
	return places, nil
}
