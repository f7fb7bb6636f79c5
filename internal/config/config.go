package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Weather backends selectable with WEATHER_PROVIDER.
const (
	ProviderOpenWeather = "openweather"
	ProviderWeatherAPI  = "weatherapi"
	ProviderOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	// Provider selects the weather backend.
	Provider string `validate:"oneof=openweather weatherapi openmeteo"`

	// OpenWeatherAPIKey is always needed: city suggestions use OpenWeatherMap geocoding.
	OpenWeatherAPIKey string `validate:"required"`
	WeatherAPIKey     string `validate:"required_if=Provider weatherapi"`
	GeocoderAPIKey    string `validate:"required_if=Provider openmeteo"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// Autocomplete tuning.
	DebounceDelay   time.Duration `validate:"gt=0"`
	SuggestionLimit int           `validate:"min=1,max=50"`
	MinQueryLength  int           `validate:"min=1"`
	GeocodeRPS      float64       `validate:"gt=0"`
	GeocodeBurst    int           `validate:"min=1"`

	// Session retention.
	MaxSessions        int           `validate:"min=0"` // 0 = unlimited
	SessionIdleTimeout time.Duration `validate:"gt=0"`
	SweepInterval      time.Duration `validate:"gt=0"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Provider = getenvDefault("WEATHER_PROVIDER", ProviderOpenWeather)
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.DebounceDelay, err = getenvDuration("DEBOUNCE_DELAY", "300ms"); err != nil {
		return nil, err
	}
	cfg.SuggestionLimit = getenvInt("SUGGESTION_LIMIT", 10)
	cfg.MinQueryLength = getenvInt("MIN_QUERY_LENGTH", 2)

	rps, err := strconv.ParseFloat(getenvDefault("GEOCODE_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_RPS: %w", err)
	}
	cfg.GeocodeRPS = rps
	cfg.GeocodeBurst = getenvInt("GEOCODE_BURST", 10)

	cfg.MaxSessions = getenvInt("MAX_SESSIONS", 1000)
	if cfg.SessionIdleTimeout, err = getenvDuration("SESSION_IDLE_TIMEOUT", "30m"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
