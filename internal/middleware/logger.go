package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

// Logger writes one access event per request. Client errors log at warn and
// server errors at error; health probes drop to debug.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case route == "/api/healthz":
			event = log.Debug()
		default:
			event = log.Info()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("request_id", RequestIDFrom(c))

		if identity, ok := session.CurrentIdentity(sessionFrom(c)); ok {
			event = event.Str("user_id", identity.ID)
		}
		event.Msg("http request")
	}
}
