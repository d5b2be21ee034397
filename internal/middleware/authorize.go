package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/apierr"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/session"
)

// RequireAuth rejects requests whose session is not bound to an identity.
// It must run after Session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.CurrentIdentity(CurrentSession(c)); !ok {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeNotAuthenticated, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireAdmin checks the admin flag captured in the session at login. It does
// not consult the directory, so a revoked flag stays effective until the
// session ends. Unauthenticated requests get 401 rather than 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := session.CurrentIdentity(CurrentSession(c))
		if !ok {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeNotAuthenticated, "authentication required")
			return
		}
		if !identity.IsAdmin {
			apierr.Abort(c, http.StatusForbidden, apierr.CodeAdminRequired, "admin privileges required")
			return
		}
		c.Next()
	}
}
