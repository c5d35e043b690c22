package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/optionlab/pricer/internal/database"
	"github.com/optionlab/pricer/internal/models"
	"github.com/optionlab/pricer/internal/pricing"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verr ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, pricing.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, pricing.ErrEarlyExerciseUnsupported), errors.Is(err, pricing.ErrNoConvergence),
		errors.Is(err, models.ErrNonFinite):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrQuoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, errStoreDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var (
		verr ValidationError
		perr *pricing.ParameterError
	)
	switch {
	case errors.As(err, &verr):
		resp.Field = verr.Field
	case errors.As(err, &perr):
		resp.Field = perr.Field
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		resp.Error = "Internal server error"
	}

	writeJSON(w, status, resp, logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
