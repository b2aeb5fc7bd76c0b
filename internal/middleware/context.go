package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
	requestIDKey contextKey = "request_id"
)

// SetUser stores the authenticated user's id and notification email.
func SetUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

func GetUserID(r *http.Request) string {
	v, _ := r.Context().Value(userIDKey).(string)
	return v
}

func GetUserEmail(r *http.Request) string {
	v, _ := r.Context().Value(userEmailKey).(string)
	return v
}

// RequestID returns the id assigned by the Logging middleware.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
