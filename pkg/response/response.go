package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
)

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a success envelope: {"success": true, ...fields}.
func OK(w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// Message writes {"success": true, "message": msg}.
func Message(w http.ResponseWriter, msg string) {
	OK(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// Error writes {"success": false, "message": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]interface{}{"success": false, "message": msg})
}

// FromError maps service errors onto HTTP statuses. Errors without a known
// kind are logged and hidden behind a generic 500.
func FromError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		logger.Sugar.Errorf("Unhandled error: %v", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	Error(w, StatusFor(appErr.Kind), appErr.Msg)
}

// StatusFor returns the HTTP status for an apperror kind.
func StatusFor(kind error) int {
	switch {
	case errors.Is(kind, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, apperror.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
