// Package request holds the small parsing helpers shared by handlers.
package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"lawfort/pkg/apperror"

	"github.com/go-chi/chi/v5"
)

// IDParam parses a positive integer chi URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Invalid("Invalid " + name)
	}
	return id, nil
}

// Int reads an integer query parameter, falling back to def when it is
// absent or malformed.
func Int(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Bool treats "true" and "1" as set.
func Bool(r *http.Request, name string) bool {
	v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	return v == "true" || v == "1"
}

func String(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Invalid("Invalid request body")
	}
	return nil
}

// Page clamps limit into [1, max] with def as the default and floors
// offset at zero.
func Page(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
