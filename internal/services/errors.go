package services

import (
	"errors"

	"github.com/isdelr/eventhub-be/internal/store"
)

var (
	ErrUnauthorized = errors.New("not authorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrEventClosed  = errors.New("event has already taken place")

	// Re-exported so callers only need this package.
	ErrNotFound = store.ErrNotFound
	ErrConflict = store.ErrConflict
)
