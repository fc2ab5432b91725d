// Package services implements the Ivan Code service layer: artifact extraction,
// project history, session coordination, persistence, settings, catalogs, the
// model client, and export. Services register in the global registry and are
// initialized together at startup.
package services

import (
	"fmt"
	"sync"

	"ivancode/pkg/ivantypes"
)

// Registry manages service registration and lifecycle for Ivan Code services.
type Registry struct {
	mu       sync.RWMutex
	services map[string]ivantypes.Service
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]ivantypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if already registered.
func (r *Registry) RegisterService(service ivantypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	return nil
}

// GetService retrieves a service by name, returning an error if not found.
func (r *Registry) GetService(name string) (ivantypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, service := range r.services {
		if err := service.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// GlobalRegistry is the global service registry instance used throughout Ivan Code.
var GlobalRegistry = NewRegistry()

// SetGlobalRegistry replaces the global registry. This is primarily for tests
// that need a clean registry per test case.
func SetGlobalRegistry(registry *Registry) {
	GlobalRegistry = registry
}
