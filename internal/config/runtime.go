package config

import (
	"os"
	"sync"
)

// RuntimeConfig stores configuration set at runtime via CLI flags.
// These values are not persisted to config files.
type RuntimeConfig struct {
	mu             sync.RWMutex
	operator       string
	allowAnonymous bool
}

var globalRuntime = &RuntimeConfig{}

// SetAllowAnonymous lets unauthenticated API requests act as the operator.
// Anonymous access is disabled by default and meant for local use.
func SetAllowAnonymous(allow bool) {
	globalRuntime.mu.Lock()
	defer globalRuntime.mu.Unlock()
	globalRuntime.allowAnonymous = allow
}

// IsAnonymousAllowed returns whether anonymous requests are accepted.
func IsAnonymousAllowed() bool {
	globalRuntime.mu.RLock()
	defer globalRuntime.mu.RUnlock()
	return globalRuntime.allowAnonymous
}

// SetOperator sets the user id that owns pages created from the CLI and by
// anonymous requests. If empty, defaults to the current user from $USER.
func SetOperator(op string) {
	globalRuntime.mu.Lock()
	defer globalRuntime.mu.Unlock()

	if op == "" {
		op = os.Getenv("USER")
	}
	globalRuntime.operator = op
}

// GetOperator returns the current operator identity.
// Returns empty string if not set and $USER is not available.
func GetOperator() string {
	globalRuntime.mu.RLock()
	defer globalRuntime.mu.RUnlock()
	return globalRuntime.operator
}
