package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/apierr"
	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidInput, http.StatusBadRequest, apierr.CodeValidation},
	{service.ErrWeakPassword, http.StatusBadRequest, apierr.CodeWeakPassword},
	{service.ErrEmailExists, http.StatusConflict, apierr.CodeEmailExists},
	{service.ErrMissingCredentials, http.StatusBadRequest, apierr.CodeMissingCredentials},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apierr.CodeInvalidCredentials},
	{service.ErrNotAuthenticated, http.StatusUnauthorized, apierr.CodeNotAuthenticated},
	{service.ErrAdminRequired, http.StatusForbidden, apierr.CodeAdminRequired},
	{service.ErrIdentityNotFound, http.StatusNotFound, apierr.CodeUserNotFound},
	{service.ErrLogoutFailed, http.StatusInternalServerError, apierr.CodeLogout},
}

// respondError renders a service error. Unknown errors never leak their text.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			apierr.Abort(c, m.status, m.code, err.Error())
			return
		}
	}

	if !errors.Is(err, service.ErrInternal) {
		h.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("unmapped handler error")
	}
	apierr.Abort(c, http.StatusInternalServerError, apierr.CodeInternal, "internal server error")
}

func badRequest(c *gin.Context, message string) {
	apierr.Abort(c, http.StatusBadRequest, apierr.CodeValidation, message)
}
