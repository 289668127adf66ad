// Package auth carries the caller identity through request contexts.
//
// Authentication itself happens at the edge: the API gateway verifies the
// session and injects the user identifier into the X-User-ID header. This
// package only transports that identity; the operation layer enforces what
// the caller may touch.
package auth

import "context"

type contextKey struct{}

// WithUser returns a context carrying the given user identifier.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom extracts the caller identity from the context. The second return
// is false when no identity was attached or it is empty.
func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
