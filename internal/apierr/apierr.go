// Package apierr renders the JSON error envelope shared by handlers and
// middleware: {"error": message, "code": CODE, "details": {...}}.
package apierr

import "github.com/gin-gonic/gin"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeAdminRequired      = "ADMIN_REQUIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeLogout             = "LOGOUT_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)

type Body struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Abort writes the envelope and stops the handler chain.
func Abort(c *gin.Context, status int, code string, message string) {
	AbortWithDetails(c, status, code, message, nil)
}

func AbortWithDetails(c *gin.Context, status int, code string, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, Body{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
