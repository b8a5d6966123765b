package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawfort/config/features"
	"lawfort/internal/access"

	"github.com/stretchr/testify/assert"
)

type fakeResolver map[string]*access.Principal

func (f fakeResolver) Resolve(_ context.Context, token string) (*access.Principal, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, errors.New("unknown session")
}

var resolver = fakeResolver{
	"user-token":   {ID: 3, Role: access.RoleUser},
	"editor-token": {ID: 2, Role: access.RoleEditor},
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	if p := CurrentUser(r); p != nil {
		w.Write([]byte(string(p.Role)))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestAuth(t *testing.T) {
	h := Auth(resolver)(http.HandlerFunc(whoAmI))

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"no token", "", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"header token", "Bearer user-token", "", http.StatusOK, "User"},
		{"query token", "", "?token=editor-token", http.StatusOK, "Editor"},
		{"non bearer scheme", "Basic user-token", "", http.StatusUnauthorized, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rr.Body.String())
			}
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	h := OptionalAuth(resolver)(http.HandlerFunc(whoAmI))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "anonymous", rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "User", rr.Body.String())
}

func TestRequireRoles(t *testing.T) {
	h := Auth(resolver)(RequireRoles(access.RoleEditor, access.RoleAdmin)(http.HandlerFunc(whoAmI)))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Access denied"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer editor-token")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	RequireRoles(access.RoleAdmin)(http.HandlerFunc(whoAmI)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireFeature(t *testing.T) {
	flags := features.Defaults()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rr := httptest.NewRecorder()
	RequireFeature(flags, features.Jobs)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	RequireFeature(flags, features.BlogPosts)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/blog-posts", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:8080"})(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:8080", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "quota is per address")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"), "a new window resets the count")

	now = now.Add(3 * time.Minute)
	l.Sweep()
	assert.Empty(t, l.clients)
}

func TestRateLimiterMiddleware(t *testing.T) {
	h := NewRateLimiter(1, time.Minute).Middleware(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestObserveRecordsStatus(t *testing.T) {
	h := Observe(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
}
