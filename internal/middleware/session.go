package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/apierr"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

const sessionContextKey = "session"

type TokenParser interface {
	Parse(token string) (string, error)
}

type SessionResumer interface {
	Resume(ctx context.Context, id string) (*models.Session, error)
}

// Session attaches a *models.Session to every request. Missing, forged or
// expired cookies yield an anonymous session; only a store failure aborts.
func Session(cookieName string, tokens TokenParser, resumer SessionResumer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := &models.Session{}

		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			if id, err := tokens.Parse(raw); err == nil {
				resumed, err := resumer.Resume(c.Request.Context(), id)
				switch {
				case err == nil:
					current = resumed
				case errors.Is(err, session.ErrNoSession):
				default:
					log.Error().Err(err).
						Str("request_id", RequestIDFrom(c)).
						Msg("session load failed")
					apierr.Abort(c, http.StatusInternalServerError, apierr.CodeInternal, "internal server error")
					return
				}
			}
		}

		c.Set(sessionContextKey, current)
		c.Next()
	}
}

// CurrentSession returns the request's session. It never returns nil.
func CurrentSession(c *gin.Context) *models.Session {
	if s := sessionFrom(c); s != nil {
		return s
	}
	s := &models.Session{}
	c.Set(sessionContextKey, s)
	return s
}

func sessionFrom(c *gin.Context) *models.Session {
	v, _ := c.Get(sessionContextKey)
	s, _ := v.(*models.Session)
	return s
}
