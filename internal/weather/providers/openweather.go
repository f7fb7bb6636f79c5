package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// OpenWeatherClient implements weather.Client for OpenWeatherMap.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

// FetchByName fetches current conditions for a free-form city name.
func (p *OpenWeatherClient) FetchByName(ctx context.Context, name string) weather.Outcome[weather.Snapshot] {
	values := url.Values{}
	values.Set("q", name)
	return p.fetch(ctx, values, "")
}

// FetchByCoordinates fetches current conditions for a coordinate pair.
func (p *OpenWeatherClient) FetchByCoordinates(ctx context.Context, lat, lon float64) weather.Outcome[weather.Snapshot] {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return p.fetch(ctx, values, coordinateLabel(lat, lon))
}

func (p *OpenWeatherClient) fetch(ctx context.Context, values url.Values, displayName string) weather.Outcome[weather.Snapshot] {
	if p.apiKey == "" {
		return weather.Failure[weather.Snapshot](classify(errNoAPIKey))
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)
		q.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", p.baseURL, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Failure[weather.Snapshot](classify(err))
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Failure[weather.Snapshot](weather.NewError(weather.KindUnknown, "malformed response body", err))
	}

	snap := weather.Snapshot{
		DisplayName: displayName,
		CityName:    payload.Name,
		Temperature: truncate(payload.Main.Temp),
		FeelsLike:   truncate(payload.Main.FeelsLike),
		Condition:   weather.ConditionUnknown,
		Description: "No description available",
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		IconCode:    "01d",
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		if w.Main != "" {
			snap.Condition = weather.Condition(w.Main)
		}
		if w.Description != "" {
			snap.Description = common.SentenceCase(w.Description)
		}
		if w.Icon != "" {
			snap.IconCode = w.Icon
		}
	}
	if snap.DisplayName == "" {
		snap.DisplayName = fmt.Sprintf("%s, %s", payload.Name, payload.Sys.Country)
	}

	return weather.Success(snap)
}

// coordinateLabel is the display name used when a coordinate lookup has no better name.
func coordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("Location at (%s, %s)",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}
