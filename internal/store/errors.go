package store

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrNotFound is returned when no page matches the id, slug or owner.
	ErrNotFound = errors.New("page not found")
	// ErrSlugTaken is returned when another page already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// StoreError wraps errors with driver context
type StoreError struct {
	Driver    string // Driver name (e.g., "sqlite")
	Operation string // Operation that failed (e.g., "create", "list")
	Err       error  // Underlying error
	Retryable bool   // Whether this error is retryable
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s failed: %v", e.Driver, e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}

// NewStoreError creates a StoreError with retryable detection
func NewStoreError(driver, operation string, err error) *StoreError {
	return &StoreError{
		Driver:    driver,
		Operation: operation,
		Err:       err,
		Retryable: isRetryableError(err),
	}
}

// isRetryableError checks if an error is transient
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlugTaken) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"database is locked",
		"sqlite_busy",
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"timeout",
		"deadline exceeded",
		"too many connections",
		"try again",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
