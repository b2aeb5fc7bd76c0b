package cognito

import "errors"

// Sentinel errors for Cognito operations.
var (
	ErrNotAuthorized    = errors.New("not authorized")
	ErrUserNotFound     = errors.New("user not found")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrEmailUnavailable = errors.New("email attribute not set")
)
