package service

import "errors"

// Caller-facing failures. Anything else a service returns is ErrInternal; the
// underlying cause is logged, never returned.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrEmailExists        = errors.New("email already registered")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAdminRequired      = errors.New("admin privileges required")
	ErrIdentityNotFound   = errors.New("user not found")
	ErrLogoutFailed       = errors.New("logout failed")
	ErrInternal           = errors.New("internal error")
)
