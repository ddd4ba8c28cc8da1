package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const accessTokenCookie = "accessToken"

// AuthGate resolves an inbound access token to a caller identity before any
// protected handler runs. The resolved identity lives on the request context
// only; it is never cached across requests.
type AuthGate struct {
	Verifier AccessVerifier
	Users    UserStore
}

// Require wraps a handler so it only runs for authenticated callers. Failure
// is terminal: the wrapped handler never executes.
func (g AuthGate) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if g.Verifier == nil || g.Users == nil {
			logging.FromContext(ctx).Error("auth gate dependencies unavailable",
				"hasVerifier", g.Verifier != nil, "hasUsers", g.Users != nil)
			respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
			return
		}

		token := bearerToken(r)
		if token == "" {
			respondError(ctx, w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := g.Verifier.VerifyAccess(token)
		if err != nil {
			logging.FromContext(ctx).Warn("access token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}

		user, err := g.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusUnauthorized, "account no longer exists")
				return
			}
			logging.FromContext(ctx).Error("auth gate user lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal server error")
			return
		}

		next(w, r.WithContext(auth.WithCaller(ctx, user)))
	}
}

// bearerToken pulls the access token from the Authorization header or the
// accessToken cookie, in that order.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// caller returns the identity resolved by the gate. Handlers registered
// behind Require may assume it is present.
func caller(r *http.Request) models.User {
	user, _ := auth.CallerFromContext(r.Context())
	return user
}
