package handler

// RESPONSE HELPERS:
// Every handler sends JSON through writeJSON and errors through
// writeError, so the whole API speaks one error shape:
//
//	{"error": "validation_error", "message": "Please use a valid Id."}
//
// writeError is the single place where domain errors become HTTP status
// codes — services return apperror values and know nothing about HTTP.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avernhe/marvel-backend/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "conflict")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader, and WriteHeader before the
// body — once bytes are written the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeRelay forwards a raw upstream body without re-encoding it.
// The catalog endpoints relay upstream JSON byte-for-byte.
func writeRelay(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError maps a domain error to its HTTP status and sends it.
//
// STATUS CONTRACT (matches what the frontend was built against):
//   - validation / malformed ID / unknown login email / wrong password → 400
//     (yes, wrong password is a 400, not a 401 — the 401 is reserved for
//     bearer-token failures)
//   - not found → 400
//   - conflict (email already registered) → 409
//   - unauthorized (missing/unknown token) → 401
//   - upstream failure or anything unrecognised → 500, raw message
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusBadRequest
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusInternalServerError
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error: 500 with the raw message, mirroring the original
	// surface where every uncaught failure answered with error.message.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
