package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/matchmaking"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps a matchmaking error kind to its HTTP status.
func statusFor(kind matchmaking.ErrorKind) int {
	switch kind {
	case matchmaking.KindNotFound:
		return http.StatusNotFound
	case matchmaking.KindNotAuthorized:
		return http.StatusForbidden
	case matchmaking.KindInvalidState, matchmaking.KindConcurrentModification:
		return http.StatusConflict
	case matchmaking.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders routine failures with their stable code. Anything else is
// an infrastructure failure and is not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *matchmaking.Error
	if errors.As(err, &e) {
		log.Debug("Request failed", "method", r.Method, "path", r.URL.Path, "code", e.Code, "error", e.Message)
		writeJSON(w, statusFor(e.Kind), errorResponse{Code: e.Code, Error: e.Message})
		return
	}
	log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Error: "internal error"})
}

// decodeJSON reads an optional JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return matchmaking.NewError(matchmaking.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}
