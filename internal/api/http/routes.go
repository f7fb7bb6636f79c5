package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the routes need.
type Deps struct {
	Sessions *store.MemoryStore
	Client   weather.Client
	Searcher weather.Searcher

	// SuggestionLimit caps /cities results when the caller gives no limit.
	SuggestionLimit int
	// RequestTimeout bounds the direct weather and city lookups.
	RequestTimeout time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	if deps.SuggestionLimit <= 0 {
		deps.SuggestionLimit = 10
	}

	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Create()
		if err != nil {
			if errors.Is(err, store.ErrCapacity) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create session")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    sess.ID,
			"state": sess.Coordinator.State(),
		})
	})

	v1.Get("/sessions/:id", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		return c.JSON(sess.Coordinator.State())
	}))

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/sessions/:id/input", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		var req inputRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		sess.Coordinator.UpdateCityInput(req.Text)
		return c.JSON(sess.Coordinator.State())
	}))

	v1.Post("/sessions/:id/submit", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		sess.Coordinator.SubmitSearch()
		return c.Status(fiber.StatusAccepted).JSON(sess.Coordinator.State())
	}))

	v1.Post("/sessions/:id/select", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess.Coordinator.SelectSuggestion(req.DisplayName)
		return c.Status(fiber.StatusAccepted).JSON(sess.Coordinator.State())
	}))

	v1.Delete("/sessions/:id/error", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		sess.Coordinator.ClearError()
		return c.JSON(sess.Coordinator.State())
	}))

	v1.Post("/sessions/:id/reset", withSession(deps.Sessions, func(c *fiber.Ctx, sess *store.Session) error {
		sess.Coordinator.ResetAll()
		return c.JSON(sess.Coordinator.State())
	}))

	v1.Get("/sessions/:id/events", withSession(deps.Sessions, streamState))

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCurrentQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.RequestTimeout)
		defer cancel()

		var outcome weather.Outcome[weather.Snapshot]
		if q.City != "" {
			outcome = deps.Client.FetchByName(ctx, q.City)
		} else {
			outcome = deps.Client.FetchByCoordinates(ctx, q.lat, q.lon)
		}

		if snap, ok := outcome.Value(); ok {
			return c.JSON(snap)
		}
		kind := weather.KindUnknown
		if werr := outcome.Err(); werr != nil {
			kind = werr.Kind
		}
		return fiber.NewError(statusForKind(kind), weather.UserMessage(kind))
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		var req citiesQuery
		req.Query = c.Query("q")
		req.Limit = c.QueryInt("limit", deps.SuggestionLimit)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.RequestTimeout)
		defer cancel()

		return c.JSON(fiber.Map{
			"query":       req.Query,
			"suggestions": deps.Searcher.Search(ctx, req.Query, req.Limit),
		})
	})
}

func withSession(sessions *store.MemoryStore, h func(*fiber.Ctx, *store.Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		return h(c, sess)
	}
}

func sessionError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "no session with that id")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "session lookup failed")
}

// statusForKind picks the HTTP status for a failed direct lookup.
func statusForKind(kind weather.ErrorKind) int {
	switch kind {
	case weather.KindCityNotFound:
		return http.StatusNotFound
	case weather.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type inputRequest struct {
	Text string `json:"text"`
}

type selectRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

type citiesQuery struct {
	Query string `validate:"required"`
	Limit int    `validate:"min=1,max=50"`
}

// currentQuery holds query parameters for the direct weather endpoint:
// either a city name or a lat/lon pair.
type currentQuery struct {
	City string
	Lat  string `validate:"omitempty,latitude"`
	Lon  string `validate:"omitempty,longitude"`

	lat, lon float64
}

func parseCurrentQuery(c *fiber.Ctx) (currentQuery, error) {
	var q currentQuery

	q.City = c.Query("city")
	q.Lat = c.Query("lat")
	q.Lon = c.Query("lon")

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	if q.City != "" {
		return q, nil
	}
	if q.Lat == "" || q.Lon == "" {
		return q, errors.New("city or both lat and lon query parameters are required")
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, errors.New("invalid lat")
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, errors.New("invalid lon")
	}
	return q, nil
}
