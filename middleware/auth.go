package middleware

import (
	"context"
	"net/http"
	"strings"

	"lawfort/internal/access"
	"lawfort/pkg/logger"
	"lawfort/pkg/response"
)

type contextKey string

const principalKey contextKey = "principal"

// SessionResolver turns a raw bearer token into the caller it belongs to.
// Implementations check both the signature and that the session is live.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*access.Principal, error)
}

// TokenFromRequest reads the bearer token. Browsers cannot set headers on
// websocket handshakes, so the token query parameter is accepted too.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Auth rejects requests without a valid, live session.
func Auth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				response.Error(w, http.StatusUnauthorized, "Unauthorized: No token provided")
				return
			}
			p, err := resolver.Resolve(r.Context(), raw)
			if err != nil {
				logger.Sugar.Debugf("Invalid session: %v", err)
				response.Error(w, http.StatusUnauthorized, "Unauthorized: Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := TokenFromRequest(r); raw != "" {
				if p, err := resolver.Resolve(r.Context(), raw); err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles admits only the listed roles. It must run after Auth.
func RequireRoles(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := CurrentUser(r)
			if p == nil {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden, "Access denied")
		})
	}
}

func WithPrincipal(ctx context.Context, p *access.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(r *http.Request) *access.Principal {
	p, _ := r.Context().Value(principalKey).(*access.Principal)
	return p
}
