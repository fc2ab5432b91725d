// Package context provides process-wide state for Ivan Code.
// It tracks test mode, the active user, and configuration values loaded from
// the environment and .env files.
package context

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"ivancode/pkg/ivantypes"
)

// IvanContext implements the ivantypes.Context interface.
type IvanContext struct {
	mu         sync.RWMutex
	testMode   bool
	activeUser string
	config     map[string]string
}

// New creates a new IvanContext with an empty configuration map.
func New() *IvanContext {
	return &IvanContext{
		config: make(map[string]string),
	}
}

// SetTestMode enables or disables deterministic test mode.
func (ctx *IvanContext) SetTestMode(testMode bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.testMode = testMode
}

// IsTestMode reports whether deterministic test mode is active.
func (ctx *IvanContext) IsTestMode() bool {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.testMode
}

// SetActiveUser records the email of the logged-in user. All persisted state is
// namespaced under this value.
func (ctx *IvanContext) SetActiveUser(email string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.activeUser = email
}

// ActiveUser returns the email of the logged-in user, or "" before login.
func (ctx *IvanContext) ActiveUser() string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.activeUser
}

// GetConfigValue looks up a configuration value, falling back to the process
// environment when the key was not loaded from a .env file or set explicitly.
func (ctx *IvanContext) GetConfigValue(key string) (string, bool) {
	ctx.mu.RLock()
	value, ok := ctx.config[key]
	ctx.mu.RUnlock()
	if ok {
		return value, true
	}
	if env, found := os.LookupEnv(key); found {
		return env, true
	}
	return "", false
}

// SetConfigValue stores a configuration value, overriding any environment value.
func (ctx *IvanContext) SetConfigValue(key string, value string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.config[key] = value
}

// LoadDotEnv parses the .env file at envPath into the configuration map.
// A missing file is not an error. Nothing is loaded in test mode so tests
// never pick up local credentials.
func (ctx *IvanContext) LoadDotEnv(envPath string) error {
	if ctx.IsTestMode() {
		return nil
	}

	data, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read .env file %s: %w", envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", envPath, err)
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	for key, value := range envMap {
		ctx.config[key] = value
	}
	return nil
}

// LoadDefaultDotEnvs loads ~/.ivan/.env followed by ./.env, later files winning.
func (ctx *IvanContext) LoadDefaultDotEnvs() error {
	if home, err := os.UserHomeDir(); err == nil {
		if err := ctx.LoadDotEnv(filepath.Join(home, ".ivan", ".env")); err != nil {
			return err
		}
	}
	return ctx.LoadDotEnv(".env")
}

var _ ivantypes.Context = (*IvanContext)(nil)
