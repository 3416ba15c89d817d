package domain

import "errors"

// ErrNotFound is returned by repo, service, and store functions when the
// requested resource does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing member name, latitude out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when creating a crew whose ID already exists.
// Handlers should map this to HTTP 409 Conflict; the sync core retries
// creation with a freshly generated ID.
var ErrConflict = errors.New("already exists")
