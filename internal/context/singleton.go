package context

import (
	"sync"

	"ivancode/pkg/ivantypes"
)

// globalContext holds the singleton instance of the global context
var globalContext ivantypes.Context

// globalContextMu protects access to the global context instance
var globalContextMu sync.RWMutex

// GetGlobalContext returns the global context singleton in a thread-safe manner.
// If no global context has been set, a new IvanContext is created.
func GetGlobalContext() ivantypes.Context {
	globalContextMu.Lock()
	defer globalContextMu.Unlock()
	if globalContext == nil {
		globalContext = New()
	}
	return globalContext
}

// SetGlobalContext replaces the global context instance in a thread-safe manner.
// This is useful for testing or when the context must be rebuilt.
func SetGlobalContext(ctx ivantypes.Context) {
	globalContextMu.Lock()
	defer globalContextMu.Unlock()
	globalContext = ctx
}

// ResetGlobalContext resets the global context singleton to nil.
// This is primarily for testing purposes to ensure clean state between tests.
func ResetGlobalContext() {
	globalContextMu.Lock()
	defer globalContextMu.Unlock()
	globalContext = nil
}
