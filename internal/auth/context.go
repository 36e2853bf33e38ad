package auth

import (
	"context"

	"divyashree/internal/model"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *model.User {
	user, _ := ctx.Value(contextKey{}).(*model.User)
	return user
}
