// Package ivantypes defines core architectural interfaces for Ivan Code.
// This file contains the fundamental interfaces that define the system's structure,
// including context management, service registration, and the model client contract.
package ivantypes

import "context"

// Context provides process-wide state for Ivan Code services.
// It tracks test mode, the active user, and configuration values loaded
// from the environment and .env files.
type Context interface {
	SetTestMode(testMode bool)
	IsTestMode() bool

	SetActiveUser(email string)
	ActiveUser() string

	GetConfigValue(key string) (string, bool)
	SetConfigValue(key string, value string)
}

// Service defines the interface for Ivan Code services that provide specific functionality.
// Services are initialized at startup and use the global context singleton for state access.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry manages the registration and retrieval of services.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}

// ModelClient is the contract with the model invocation service.
// Generate receives the prior conversation plus the new prompt and returns the
// model reply. Implementations may pre-split the code artifact into
// ServiceResponse.Code; when Code is empty the caller performs extraction itself.
type ModelClient interface {
	ProviderName() string
	IsConfigured() bool
	Generate(ctx context.Context, history []Message, prompt string, settings Settings) (ServiceResponse, error)
}
