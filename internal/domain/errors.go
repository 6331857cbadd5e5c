package domain

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable marks failures of the transaction/account stores.
// Analytics never turns these into zeroed metrics.
var ErrUpstreamUnavailable = errors.New("upstream store unavailable")

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ValidationError rejects input before any computation runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
