// Package middleware provides net/http middleware around an identity.Engine.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/permission"
)

type claimContextKey struct{}

// ClaimFromContext returns the claim attached by Guard, if any.
func ClaimFromContext(ctx context.Context) (identity.Claim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(identity.Claim)
	return claim, ok
}

// Guard authenticates the bearer token on each request and attaches the
// resulting claim to the request context. Requests without a valid live
// token get a 401.
func Guard(engine *identity.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claim, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimContextKey{}, claim)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only claims holding one of the given roles. It must
// run after Guard.
func RequireRole(engine *identity.Engine, roles ...permission.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := ClaimFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := engine.Authorize(claim, roles...); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows only claims whose role grants p. It must run
// after Guard.
func RequirePermission(engine *identity.Engine, p permission.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := ClaimFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := engine.RequirePermission(claim, p); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
