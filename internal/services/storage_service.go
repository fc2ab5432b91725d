package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ivancode/internal/context"
	"ivancode/internal/logger"
	"ivancode/internal/storage"
	"ivancode/internal/testutils"
	"ivancode/pkg/ivantypes"
)

// DataClass selects which per-user collection a value belongs to.
type DataClass string

// Per-user data classes. Keys never collide across users or classes because
// both are baked into the storage key.
const (
	DataClassHistory       DataClass = "history"
	DataClassSettings      DataClass = "settings"
	DataClassAccessibility DataClass = "accessibility"
)

// Storage key construction, kept compatible with the original cloud simulation.
const (
	usersCollectionKey = "ivan_cloud_users_v1"
	dataKeyPrefix      = "ivan_cloud_data_v1_"
)

// Account errors callers branch on during the login flow.
var (
	ErrEmailTaken      = errors.New("email is already registered")
	ErrAccountNotFound = errors.New("account not found")
	ErrWrongPassword   = errors.New("wrong password")
)

// StorageService is the persistence adapter: namespaced, typed save/load of
// per-user state on top of the key-value backend. Save failures are reported
// as a boolean and logged, never propagated as a crash — the session must stay
// usable with in-memory state when durability is gone.
type StorageService struct {
	initialized bool
	backend     storage.Backend
}

// NewStorageService creates a StorageService that picks its backend during
// Initialize: in-memory in test mode, file-backed otherwise.
func NewStorageService() *StorageService {
	return &StorageService{}
}

// NewStorageServiceWithBackend creates a StorageService on an explicit backend.
// Used by tests and by callers that already decided where state lives.
func NewStorageServiceWithBackend(backend storage.Backend) *StorageService {
	return &StorageService{backend: backend}
}

// Name returns the service name "storage" for registration.
func (s *StorageService) Name() string {
	return "storage"
}

// Initialize selects the backend and marks the service ready.
// A data directory that cannot be created degrades to the in-memory backend
// with a warning rather than failing startup.
func (s *StorageService) Initialize() error {
	if s.backend == nil {
		ctx := context.GetGlobalContext()
		if ctx.IsTestMode() {
			s.backend = storage.NewMemoryBackend()
		} else {
			backend, err := storage.NewFileBackend(dataDir(ctx))
			if err != nil {
				logger.Warn("Falling back to in-memory storage", "error", err)
				s.backend = storage.NewMemoryBackend()
			} else {
				s.backend = backend
			}
		}
	}
	s.initialized = true
	return nil
}

// dataDir resolves the storage root: --data-dir flag, IVAN_DATA_DIR, then
// ~/.ivan/data.
func dataDir(ctx ivantypes.Context) string {
	if dir, ok := ctx.GetConfigValue("IVAN_DATA_DIR"); ok && dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ivan-data"
	}
	return filepath.Join(home, ".ivan", "data")
}

// dataKey builds the namespaced key for a user and data class.
func dataKey(userID string, class DataClass) string {
	return fmt.Sprintf("%s%s_%s", dataKeyPrefix, userID, class)
}

// Save serializes value and stores it under the user's data class key.
// Returns false (and logs a warning) on any failure.
func (s *StorageService) Save(userID string, class DataClass, value any) bool {
	if !s.initialized || userID == "" {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Cloud save failed: serialization", "class", class, "error", err)
		return false
	}

	if err := s.backend.Set(dataKey(userID, class), string(data)); err != nil {
		logger.Warn("Cloud save failed: backend", "class", class, "error", err)
		return false
	}

	logger.ServiceOperation("storage", "save", "class", string(class), "user", userID)
	return true
}

// Load deserializes the user's data class value into out.
// Returns false when the value is absent or can no longer be parsed.
func (s *StorageService) Load(userID string, class DataClass, out any) bool {
	if !s.initialized || userID == "" {
		return false
	}

	raw, ok := s.backend.Get(dataKey(userID, class))
	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn("Cloud load failed: corrupt value", "class", class, "error", err)
		return false
	}
	return true
}

// SaveHistory persists the full project ledger for a user. Full-ledger writes
// only; there are no delta writes.
func (s *StorageService) SaveHistory(userID string, ledger []ivantypes.Project) bool {
	return s.Save(userID, DataClassHistory, ledger)
}

// LoadHistory returns the user's project ledger, empty when none was saved.
func (s *StorageService) LoadHistory(userID string) []ivantypes.Project {
	var ledger []ivantypes.Project
	if !s.Load(userID, DataClassHistory, &ledger) {
		return []ivantypes.Project{}
	}
	return ledger
}

// SaveSettings persists the user's generation settings.
func (s *StorageService) SaveSettings(userID string, settings ivantypes.Settings) bool {
	return s.Save(userID, DataClassSettings, settings)
}

// LoadSettings returns the user's settings and whether any were stored.
func (s *StorageService) LoadSettings(userID string) (ivantypes.Settings, bool) {
	var settings ivantypes.Settings
	ok := s.Load(userID, DataClassSettings, &settings)
	return settings, ok
}

// SaveAccessibility persists the user's accessibility preferences.
func (s *StorageService) SaveAccessibility(userID string, state ivantypes.AccessibilityState) bool {
	return s.Save(userID, DataClassAccessibility, state)
}

// LoadAccessibility returns the user's accessibility preferences and whether
// any were stored.
func (s *StorageService) LoadAccessibility(userID string) (ivantypes.AccessibilityState, bool) {
	var state ivantypes.AccessibilityState
	ok := s.Load(userID, DataClassAccessibility, &state)
	return state, ok
}

// loadAccounts reads the shared account collection.
func (s *StorageService) loadAccounts() map[string]ivantypes.Account {
	accounts := make(map[string]ivantypes.Account)
	raw, ok := s.backend.Get(usersCollectionKey)
	if !ok {
		return accounts
	}
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		logger.Warn("Account collection is corrupt, starting empty", "error", err)
		return make(map[string]ivantypes.Account)
	}
	return accounts
}

// saveAccounts writes the shared account collection.
func (s *StorageService) saveAccounts(accounts map[string]ivantypes.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to serialize accounts: %w", err)
	}
	return s.backend.Set(usersCollectionKey, string(data))
}

// RegisterUser creates an account for the given profile. Duplicate emails are
// rejected with ErrEmailTaken.
func (s *StorageService) RegisterUser(user ivantypes.User, password string) error {
	if !s.initialized {
		return fmt.Errorf("storage service not initialized")
	}
	if user.Email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	accounts := s.loadAccounts()
	if _, exists := accounts[user.Email]; exists {
		return ErrEmailTaken
	}

	accounts[user.Email] = ivantypes.Account{
		Profile:   user,
		Password:  password,
		CreatedAt: testutils.GetCurrentTime(context.GetGlobalContext()),
	}
	if err := s.saveAccounts(accounts); err != nil {
		return fmt.Errorf("failed to store account: %w", err)
	}

	logger.Info("Account registered", "email", user.Email)
	return nil
}

// LoginUser verifies credentials and returns the stored profile.
func (s *StorageService) LoginUser(email, password string) (ivantypes.User, error) {
	if !s.initialized {
		return ivantypes.User{}, fmt.Errorf("storage service not initialized")
	}

	accounts := s.loadAccounts()
	account, exists := accounts[email]
	if !exists {
		return ivantypes.User{}, ErrAccountNotFound
	}
	if account.Password != password {
		return ivantypes.User{}, ErrWrongPassword
	}
	return account.Profile, nil
}

// UserExists reports whether an account exists for the email.
func (s *StorageService) UserExists(email string) bool {
	if !s.initialized {
		return false
	}
	_, exists := s.loadAccounts()[email]
	return exists
}
