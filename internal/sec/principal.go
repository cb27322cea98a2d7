package sec

import (
	"context"

	"github.com/taskdeckapp/taskdeck/internal/storage/db"
)

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated user. Handlers
// receive the principal through the request context rather than reading any
// ambient session state.
func WithPrincipal(ctx context.Context, user db.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFrom returns the authenticated user for the current request, if
// any. The second return is false for anonymous callers.
func PrincipalFrom(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(principalKey{}).(db.User)
	return user, ok
}
