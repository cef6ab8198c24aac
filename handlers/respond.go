package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/models"

	"github.com/rs/zerolog/log"
)

// sendJSONError writes the shared JSON error envelope.
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	var errorResponse models.ErrorResponse
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse.Message = message
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}

// sendJSON writes a JSON response body with the given status.
func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// sendError maps the error taxonomy onto HTTP statuses. Unrecognized
// errors are treated as internal.
func sendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		sendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUnauthorized):
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrNotFound):
		sendJSONError(w, "Not found", http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Request failed")
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
