package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/avernhe/marvel-backend/internal/model"
)

// TokenResolver looks up the account owning a bearer token.
// Implemented by the user repository; declared here so the middleware
// depends on an interface instead of the concrete sqlite package.
type TokenResolver interface {
	GetByToken(ctx context.Context, token string) (*model.User, error)
}

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write
// the authenticated user in a request context — no collisions with other
// packages that happen to use the same string.
type contextKey string

const userKey contextKey = "user"

// RequireToken is the middleware guarding authenticated routes.
//
// It reads "Authorization: Bearer <token>", resolves the token to a user
// record with a single store lookup, and places the full record in the
// request context. Missing header or unknown token → 401, request chain
// stops. There is no cache in front of the lookup, so every authenticated
// request costs one store round-trip.
func RequireToken(users TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			user, err := users.GetByToken(r.Context(), token)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			// Store the full record in context so handlers don't re-fetch it
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user set by RequireToken.
// Returns (nil, false) on routes that aren't behind the middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// ContextWithUser returns a context carrying the given user.
// Exported for handler tests, which exercise handlers without the
// middleware in front of them.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"Unauthorized to do this action."}`))
}
