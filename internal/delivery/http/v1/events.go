package v1

import (
	"io"

	"github.com/gin-gonic/gin"
)

// HandleEvents streams row-level change events over SSE. Clients
// re-fetch and reclassify on every event; the stream carries no row
// data of its own.
func (h *handlerImpl) HandleEvents(c *gin.Context) {
	if _, ok := mustCurrentUser(c); !ok {
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	h.logger.Debug().
		Str("client_ip", c.ClientIP()).
		Msg("client subscribed to change events")

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Debug().
		Str("client_ip", c.ClientIP()).
		Msg("client unsubscribed from change events")
}
