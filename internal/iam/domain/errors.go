package domain

import "errors"

// Error kinds surfaced to callers. Services wrap these with %w and a safe
// message; anything that does not wrap one of them is treated as ErrInternal
// by the request layer and never shown to the caller verbatim.
var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")
)
