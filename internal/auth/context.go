// ABOUTME: Identity context for tracking the requesting user through handlers
// ABOUTME: Provides WithIdentity/IdentityFromContext for propagating the user via context

package auth

import (
	"context"

	"github.com/2389/todo-board/internal/store"
)

// identityContextKey is the key type for storing the identity in context.Context.
type identityContextKey struct{}

// WithIdentity returns a new context with the user attached.
// A nil user leaves the request anonymous.
func WithIdentity(ctx context.Context, user *store.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext retrieves the user from the context, returning nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(identityContextKey{}).(*store.User)
	return user
}
