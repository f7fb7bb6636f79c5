package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/lookup"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := newWeatherClient(cfg, httpClient)
	log.Printf("INFO: using weather provider %s", client.Name())

	// Suggestions always come from OpenWeatherMap geocoding, rate limited across sessions.
	geocode := providers.NewGeocodeClient(httpClient, cfg.OpenWeatherAPIKey, cfg.GeocodeRPS, cfg.GeocodeBurst)

	opts := lookup.Options{
		Debounce:        cfg.DebounceDelay,
		SuggestionLimit: cfg.SuggestionLimit,
		MinQueryLength:  cfg.MinQueryLength,
	}
	sessions := store.NewMemoryStore(func() *lookup.Coordinator {
		return lookup.New(client, geocode, opts)
	}, cfg.MaxSessions, cfg.SessionIdleTimeout)
	defer sessions.CloseAll()

	// Scheduler that periodically drops idle sessions.
	sched := scheduler.New(sessions, cfg.SweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// No WriteTimeout: SSE streams stay open for the life of a session.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-lookup",
			"provider": client.Name(),
			"sessions": sessions.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Sessions:        sessions,
		Client:          client,
		Searcher:        geocode,
		SuggestionLimit: cfg.SuggestionLimit,
		RequestTimeout:  cfg.HTTPTimeout,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	// Closing sessions ends open event streams so shutdown does not wait on them.
	sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newWeatherClient(cfg *config.AppConfig, httpClient *http.Client) weather.Client {
	switch cfg.Provider {
	case config.ProviderWeatherAPI:
		return providers.NewWeatherAPIClient(httpClient, cfg.WeatherAPIKey)
	case config.ProviderOpenMeteo:
		// Open-Meteo does not require an API key, but geocoding requires a Google API key.
		return providers.NewOpenMeteoClient(httpClient, providers.NewGoogleLocator(cfg.GeocoderAPIKey))
	default:
		return providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey)
	}
}
