package repository

import "errors"

// ErrNotFound is returned when the requested trip, booking or other entity
// does not exist. Handlers map it to 404.
var ErrNotFound = errors.New("entity not found")
