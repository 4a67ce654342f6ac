package domain

import "errors"

// Error kinds surfaced by the service layer. Services wrap them with
// fmt.Errorf("%w: ...") so handlers can map them to HTTP statuses with
// errors.Is while keeping a human readable message.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidRole  = errors.New("invalid role")
)
