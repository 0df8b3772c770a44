package service

import "errors"

var (
	ErrOrderingClosed = errors.New("ordering is closed")
	ErrInvalidCreds   = errors.New("invalid email or password")
)

// ValidationError reports bad customer or admin input. Message is user-facing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
