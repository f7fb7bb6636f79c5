package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// weatherAPINoMatch is WeatherAPI.com's error code for an unknown location.
// It arrives with HTTP 400 rather than 404.
const weatherAPINoMatch = 1006

// WeatherAPIClient implements weather.Client for WeatherAPI.com.
type WeatherAPIClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIClient(client *http.Client, apiKey string) *WeatherAPIClient {
	return &WeatherAPIClient{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIClient) Name() string {
	return p.name
}

func (p *WeatherAPIClient) FetchByName(ctx context.Context, name string) weather.Outcome[weather.Snapshot] {
	return p.fetch(ctx, name, "")
}

// FetchByCoordinates uses WeatherAPI's "lat,lon" form of the q parameter.
func (p *WeatherAPIClient) FetchByCoordinates(ctx context.Context, lat, lon float64) weather.Outcome[weather.Snapshot] {
	return p.fetch(ctx, fmt.Sprintf("%f,%f", lat, lon), coordinateLabel(lat, lon))
}

func (p *WeatherAPIClient) fetch(ctx context.Context, q, displayName string) weather.Outcome[weather.Snapshot] {
	if p.apiKey == "" {
		return weather.Failure[weather.Snapshot](classify(errNoAPIKey))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", q)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusBadRequest {
			// Unknown cities come back as 400; the body was already discarded,
			// so treat a 400 on a name lookup as not found.
			return weather.Failure[weather.Snapshot](weather.NewError(weather.KindCityNotFound, fmt.Sprintf("no match (code %d)", weatherAPINoMatch), err))
		}
		if errors.As(err, &se) && se.code == http.StatusForbidden {
			return weather.Failure[weather.Snapshot](weather.NewError(weather.KindInvalidCredentials, "api key rejected", err))
		}
		return weather.Failure[weather.Snapshot](classify(err))
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"location"`
		Current struct {
			TempC      float64 `json:"temp_c"`
			FeelsLikeC float64 `json:"feelslike_c"`
			Humidity   int     `json:"humidity"`
			WindKph    float64 `json:"wind_kph"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Failure[weather.Snapshot](weather.NewError(weather.KindUnknown, "malformed response body", err))
	}

	cond := mapWeatherAPICondition(payload.Current.Condition.Text)
	desc := strings.TrimSpace(payload.Current.Condition.Text)
	if desc == "" {
		desc = "No description available"
	}
	if displayName == "" {
		displayName = fmt.Sprintf("%s, %s", payload.Location.Name, payload.Location.Country)
	}

	return weather.Success(weather.Snapshot{
		DisplayName: displayName,
		CityName:    payload.Location.Name,
		Temperature: truncate(payload.Current.TempC),
		FeelsLike:   truncate(payload.Current.FeelsLikeC),
		Condition:   cond,
		Description: common.SentenceCase(desc),
		Humidity:    payload.Current.Humidity,
		// Convert wind from kph to m/s.
		WindSpeed: payload.Current.WindKph / 3.6,
		IconCode:  cond.Icon(),
	})
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionThunderstorm
	case common.HasAny(text, "drizzle"):
		return weather.ConditionDrizzle
	case common.HasAny(text, "rain", "shower"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnow
	case common.HasAny(text, "mist", "fog", "haze"):
		return weather.ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionClouds
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
