package config

import (
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"WEATHER_PROVIDER", "OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "GEOCODER_API_KEY",
	"HTTP_TIMEOUT", "DEBOUNCE_DELAY", "SUGGESTION_LIMIT", "MIN_QUERY_LENGTH",
	"GEOCODE_RPS", "GEOCODE_BURST", "MAX_SESSIONS", "SESSION_IDLE_TIMEOUT",
	"SESSION_SWEEP_INTERVAL", "PORT",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderOpenWeather {
		t.Fatalf("expected default provider, got %q", cfg.Provider)
	}
	if cfg.DebounceDelay != 300*time.Millisecond || cfg.SuggestionLimit != 10 || cfg.MinQueryLength != 2 {
		t.Fatalf("unexpected autocomplete defaults %+v", cfg)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute || cfg.SweepInterval != time.Minute || cfg.MaxSessions != 1000 {
		t.Fatalf("unexpected session defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("DEBOUNCE_DELAY", "150ms")
	t.Setenv("SUGGESTION_LIMIT", "5")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DebounceDelay != 150*time.Millisecond || cfg.SuggestionLimit != 5 || cfg.Port != "9090" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing openweather key", map[string]string{}},
		{"unknown provider", map[string]string{"OPENWEATHER_API_KEY": "k", "WEATHER_PROVIDER": "darksky"}},
		{"weatherapi without key", map[string]string{"OPENWEATHER_API_KEY": "k", "WEATHER_PROVIDER": "weatherapi"}},
		{"openmeteo without geocoder key", map[string]string{"OPENWEATHER_API_KEY": "k", "WEATHER_PROVIDER": "openmeteo"}},
		{"suggestion limit too large", map[string]string{"OPENWEATHER_API_KEY": "k", "SUGGESTION_LIMIT": "500"}},
		{"non numeric port", map[string]string{"OPENWEATHER_API_KEY": "k", "PORT": "http"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Fatalf("expected wrapped validation error, got %v", err)
			}
		})
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "k")
	t.Setenv("DEBOUNCE_DELAY", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DEBOUNCE_DELAY") {
		t.Fatalf("expected DEBOUNCE_DELAY error, got %v", err)
	}
}

func TestLoadProviderKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "k")
	t.Setenv("WEATHER_PROVIDER", ProviderWeatherAPI)
	t.Setenv("WEATHERAPI_API_KEY", "wa")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderWeatherAPI || cfg.WeatherAPIKey != "wa" {
		t.Fatalf("unexpected provider config %+v", cfg)
	}
}
