package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-lookup/internal/store"
)

const keepAliveInterval = 15 * time.Second

// streamState sends every coordinator state as a Server-Sent Event until the
// client goes away or the session ends.
func streamState(c *fiber.Ctx, sess *store.Session) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	updates, unsubscribe := sess.Coordinator.Subscribe()
	id := sess.ID

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case st, ok := <-updates:
				if !ok {
					fmt.Fprint(w, "event: closed\ndata: {}\n\n")
					_ = w.Flush()
					return
				}
				payload, err := json.Marshal(st)
				if err != nil {
					log.Printf("ERROR: stream %s: encode state: %v", id, err)
					return
				}
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				// Client disconnected.
				return
			}
		}
	}))

	return nil
}
