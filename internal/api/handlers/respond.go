package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/isdelr/eventhub-be/internal/services"
	"github.com/isdelr/eventhub-be/internal/upload"
	"github.com/rs/zerolog/log"
)

// msgResponse is the body of every error and simple acknowledgement.
type msgResponse struct {
	Msg string `json:"msg"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, msgResponse{Msg: msg})
}

// respondError maps a service error onto an HTTP status.
func respondError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, msg := http.StatusInternalServerError, "Server error"
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, services.ErrForbidden):
		status, msg = http.StatusForbidden, "Guests cannot perform this action"
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrEventClosed):
		status, msg = http.StatusConflict, "Event has already taken place"
	case errors.Is(err, services.ErrConflict):
		status, msg = http.StatusConflict, "Already exists"
	case errors.Is(err, upload.ErrUnsupported):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, upload.ErrUpload):
		status, msg = http.StatusBadGateway, "Image upload failed"
	}

	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg(action)
	respondMsg(w, status, msg)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", services.ErrInvalidInput)
	}
	return nil
}
