package auth

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

type ctxKey string

const callerKey ctxKey = "caller"

// WithCaller stores the resolved identity on the context for the duration of
// one request. Identities are never cached across requests.
func WithCaller(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// CallerFromContext returns the identity resolved by the auth gate, if any.
func CallerFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(callerKey).(models.User)
	return user, ok
}
