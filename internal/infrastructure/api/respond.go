package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeResult wraps a feature response the way the admin pages read it
func writeResult(w http.ResponseWriter, response interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": map[string]interface{}{"response": response},
	})
}

// dataResponse is the response body of most feature routes
type dataResponse struct {
	Data       json.RawMessage `json:"data"`
	UserErrors string          `json:"user_errors,omitempty"`
}

// writeError maps application errors to status codes
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMissingParameter):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrShopNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSessionToken):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
