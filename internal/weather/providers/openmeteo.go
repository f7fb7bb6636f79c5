package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Locator resolves city names to coordinates and back. Open-Meteo only
// accepts coordinates, so name lookups go through one.
type Locator interface {
	Locate(ctx context.Context, name string) (lat, lon float64, err error)
	Describe(ctx context.Context, lat, lon float64) (string, error)
}

// GoogleLocator is a Locator backed by the Google Geocoding API.
type GoogleLocator struct{}

// NewGoogleLocator configures the geocoder package with apiKey.
// The key is process-wide; the geocoder package keeps it in a global.
func NewGoogleLocator(apiKey string) *GoogleLocator {
	geocoder.ApiKey = apiKey
	return &GoogleLocator{}
}

func (g *GoogleLocator) Locate(ctx context.Context, name string) (float64, float64, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := geocoder.Geocoding(geocoder.Address{City: name})
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return 0, 0, classifyGeocoderError(r.err)
		}
		return r.loc.Latitude, r.loc.Longitude, nil
	}
}

func (g *GoogleLocator) Describe(ctx context.Context, lat, lon float64) (string, error) {
	type result struct {
		addrs []geocoder.Address
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		addrs, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
		ch <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", classifyGeocoderError(r.err)
		}
		for _, a := range r.addrs {
			if a.City != "" && a.Country != "" {
				return fmt.Sprintf("%s, %s", a.City, a.Country), nil
			}
		}
		return "", weather.NewError(weather.KindCityNotFound, "no named place at coordinates", nil)
	}
}

// classifyGeocoderError maps Google status strings surfaced by the geocoder package.
func classifyGeocoderError(err error) error {
	switch {
	case common.HasAny(err.Error(), "ZERO_RESULTS", "no results"):
		return weather.NewError(weather.KindCityNotFound, "geocoding found no match", err)
	case common.HasAny(err.Error(), "REQUEST_DENIED", "API key"):
		return weather.NewError(weather.KindInvalidCredentials, "geocoding key rejected", err)
	default:
		return err
	}
}

// OpenMeteoClient implements weather.Client for Open-Meteo.
type OpenMeteoClient struct {
	name    string
	baseURL string
	locator Locator
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient needs no Open-Meteo API key, but name lookups require a Locator.
func NewOpenMeteoClient(client *http.Client, locator Locator) *OpenMeteoClient {
	return &OpenMeteoClient{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		locator: locator,
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoClient) Name() string {
	return p.name
}

func (p *OpenMeteoClient) FetchByName(ctx context.Context, name string) weather.Outcome[weather.Snapshot] {
	if p.locator == nil {
		return weather.Failure[weather.Snapshot](weather.NewError(weather.KindInvalidCredentials, "openmeteo requires a geocoder for name lookups", nil))
	}
	lat, lon, err := p.locator.Locate(ctx, name)
	if err != nil {
		return weather.Failure[weather.Snapshot](classify(err))
	}

	city := strings.TrimSpace(strings.Split(name, ",")[0])
	return p.fetch(ctx, lat, lon, name, city)
}

func (p *OpenMeteoClient) FetchByCoordinates(ctx context.Context, lat, lon float64) weather.Outcome[weather.Snapshot] {
	display := coordinateLabel(lat, lon)
	city := display
	if p.locator != nil {
		if named, err := p.locator.Describe(ctx, lat, lon); err == nil && named != "" {
			display = named
			city = strings.TrimSpace(strings.Split(named, ",")[0])
		}
	}
	return p.fetch(ctx, lat, lon, display, city)
}

func (p *OpenMeteoClient) fetch(ctx context.Context, lat, lon float64, displayName, city string) weather.Outcome[weather.Snapshot] {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,weather_code,wind_speed_10m,is_day")
		values.Set("wind_speed_unit", "ms")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Failure[weather.Snapshot](classify(err))
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Apparent    float64 `json:"apparent_temperature"`
			Humidity    int     `json:"relative_humidity_2m"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			IsDay       int     `json:"is_day"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Failure[weather.Snapshot](weather.NewError(weather.KindUnknown, "malformed response body", err))
	}

	cond, desc := mapOpenMeteoCondition(payload.Current.WeatherCode)
	icon := cond.Icon()
	if payload.Current.IsDay == 0 {
		icon = strings.TrimSuffix(icon, "d") + "n"
	}

	return weather.Success(weather.Snapshot{
		DisplayName: displayName,
		CityName:    city,
		Temperature: truncate(payload.Current.Temperature),
		FeelsLike:   truncate(payload.Current.Apparent),
		Condition:   cond,
		Description: desc,
		Humidity:    payload.Current.Humidity,
		WindSpeed:   payload.Current.WindSpeed,
		IconCode:    icon,
	})
}

// mapOpenMeteoCondition maps WMO weather codes (simplified).
func mapOpenMeteoCondition(code int) (weather.Condition, string) {
	switch {
	case code == 0:
		return weather.ConditionClear, "Clear sky"
	case code >= 1 && code <= 3:
		return weather.ConditionClouds, "Partly cloudy"
	case code == 45 || code == 48:
		return weather.ConditionMist, "Fog"
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle, "Drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain, "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow, "Snow"
	case code >= 95:
		return weather.ConditionThunderstorm, "Thunderstorm"
	default:
		return weather.ConditionUnknown, "No description available"
	}
}
