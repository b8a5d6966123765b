package middleware

import (
	"net/http"

	"lawfort/config/features"
	"lawfort/pkg/response"
)

// RequireFeature hides a route behind a feature flag. Disabled routes look
// exactly like routes that were never registered.
func RequireFeature(flags features.Flags, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !flags.Enabled(name) {
				response.Error(w, http.StatusNotFound, "Not found")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
