package pages

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the page does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("page not found")
	// ErrConflict is returned when the slug is already used by another page.
	ErrConflict = errors.New("slug already exists")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
