package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// AccessDeniedError is returned when an authenticated actor lacks permission
// for an action on an existing entity. It matches ErrForbidden under errors.Is.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "forbidden: " + e.Reason
}

func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Denied returns an AccessDeniedError carrying the given reason.
func Denied(reason string) error {
	return &AccessDeniedError{Reason: reason}
}
