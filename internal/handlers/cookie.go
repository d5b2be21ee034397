package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/models"
)

// writeSessionCookie hands the client a signed reference to s. The cookie
// lives until the session's absolute expiry; idle expiry is enforced server
// side.
func (h HandlerSet) writeSessionCookie(c *gin.Context, s *models.Session) error {
	token, err := h.tokens.Issue(s.ID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	h.setCookie(c, token, maxAge)
	return nil
}

func (h HandlerSet) clearSessionCookie(c *gin.Context) {
	h.setCookie(c, "", -1)
}

func (h HandlerSet) setCookie(c *gin.Context, value string, maxAge int) {
	cfg := h.cfg.Security.Session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, value, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}
