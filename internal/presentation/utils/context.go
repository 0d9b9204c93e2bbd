package utils

import (
	"context"

	"github.com/2vw/equinox/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser attaches the authenticated caller's profile to the request
// context. Only the auth middleware writes it.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated caller, or nil when the
// request never passed the auth middleware.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}
