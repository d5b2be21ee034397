package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/apierr"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", RequestIDFrom(c)).
					Msg("panic recovered")
				apierr.Abort(c, http.StatusInternalServerError, apierr.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
