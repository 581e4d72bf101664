package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limited")
)

// InvalidProjectsError is returned when an access grant names projects that are
// not currently locked. It unwraps to ErrValidation.
type InvalidProjectsError struct {
	IDs []string
}

func (e *InvalidProjectsError) Error() string {
	return fmt.Sprintf("invalid project ids: %s", strings.Join(e.IDs, ", "))
}

func (e *InvalidProjectsError) Unwrap() error { return ErrValidation }
