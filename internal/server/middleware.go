package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatherhq/gather/internal/service"
	"github.com/gatherhq/gather/internal/storage"
)

// jsonResponse writes a JSON body with the given status code.
func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// errorResponse writes a JSON error body with the given status code.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// parseJSONBody decodes a request body into dst, rejecting unknown fields.
func parseJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// serviceError maps engine sentinel errors to HTTP responses. Everything
// the engine raises is recoverable at this boundary; nothing is fatal.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyGenerated),
		errors.Is(err, service.ErrFeatureDisabled),
		errors.Is(err, storage.ErrLastAdmin):
		errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAssignmentImpossible),
		errors.Is(err, service.ErrInvalidComposition),
		errors.Is(err, service.ErrDateOutOfRange):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidVote):
		errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("internal error", "error", err)
		errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// loggingMiddleware logs all incoming requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
