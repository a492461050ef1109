package service

import "errors"

// Sentinel errors for the domain taxonomy. Handlers map them to HTTP status
// codes with errors.Is; wrapped messages carry the field-level detail.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
