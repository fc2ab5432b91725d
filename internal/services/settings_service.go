package services

import (
	"fmt"

	"ivancode/internal/logger"
	"ivancode/pkg/ivantypes"
)

// SettingsService owns the per-user generation settings and accessibility
// preferences. Both are single values with last-write-wins semantics,
// persisted through the storage service on every change.
type SettingsService struct {
	initialized bool
	storage     *StorageService
	catalog     *CatalogService

	userID   string
	settings ivantypes.Settings
	access   ivantypes.AccessibilityState
}

// NewSettingsService creates a SettingsService that resolves its dependencies
// from the global registry during Initialize.
func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// NewSettingsServiceWithDeps creates a SettingsService with explicit
// dependencies, for tests.
func NewSettingsServiceWithDeps(storage *StorageService, catalog *CatalogService) *SettingsService {
	return &SettingsService{storage: storage, catalog: catalog}
}

// Name returns the service name "settings" for registration.
func (s *SettingsService) Name() string {
	return "settings"
}

// Initialize wires the storage and catalog services.
func (s *SettingsService) Initialize() error {
	if s.storage == nil {
		service, err := GlobalRegistry.GetService("storage")
		if err != nil {
			return fmt.Errorf("settings service requires storage service: %w", err)
		}
		s.storage = service.(*StorageService)
	}
	if s.catalog == nil {
		service, err := GlobalRegistry.GetService("catalog")
		if err != nil {
			return fmt.Errorf("settings service requires catalog service: %w", err)
		}
		s.catalog = service.(*CatalogService)
	}

	s.settings = ivantypes.DefaultSettings()
	s.access = ivantypes.DefaultAccessibility()
	s.initialized = true
	return nil
}

// BeginUser loads the stored settings and accessibility state for a user,
// falling back to defaults when nothing was stored.
func (s *SettingsService) BeginUser(userID string) error {
	if !s.initialized {
		return fmt.Errorf("settings service not initialized")
	}

	s.userID = userID
	if stored, ok := s.storage.LoadSettings(userID); ok && s.catalog.IsValidModel(stored.Model) && s.catalog.IsValidLanguage(stored.Language) {
		s.settings = stored
	} else {
		s.settings = s.catalog.DefaultSettings()
	}
	if stored, ok := s.storage.LoadAccessibility(userID); ok {
		s.access = stored
	} else {
		s.access = ivantypes.DefaultAccessibility()
	}
	return nil
}

// Current returns the active settings.
func (s *SettingsService) Current() ivantypes.Settings {
	return s.settings
}

// SetModel validates and persists a new model selection.
func (s *SettingsService) SetModel(id string) error {
	if !s.initialized {
		return fmt.Errorf("settings service not initialized")
	}
	if !s.catalog.IsValidModel(id) {
		return fmt.Errorf("unknown model '%s'", id)
	}

	s.settings.Model = id
	if !s.storage.SaveSettings(s.userID, s.settings) {
		logger.Warn("Settings not saved, change applies to this session only")
	}
	return nil
}

// SetLanguage validates and persists a new target language selection.
func (s *SettingsService) SetLanguage(id string) error {
	if !s.initialized {
		return fmt.Errorf("settings service not initialized")
	}
	if !s.catalog.IsValidLanguage(id) {
		return fmt.Errorf("unknown language '%s'", id)
	}

	s.settings.Language = id
	if !s.storage.SaveSettings(s.userID, s.settings) {
		logger.Warn("Settings not saved, change applies to this session only")
	}
	return nil
}

// Accessibility returns the active accessibility state.
func (s *SettingsService) Accessibility() ivantypes.AccessibilityState {
	return s.access
}

// UpdateAccessibility replaces and persists the accessibility state.
func (s *SettingsService) UpdateAccessibility(state ivantypes.AccessibilityState) {
	s.access = state
	if !s.storage.SaveAccessibility(s.userID, s.access) {
		logger.Warn("Accessibility preferences not saved, change applies to this session only")
	}
}

// ResetAccessibility restores and persists the well-defined defaults.
func (s *SettingsService) ResetAccessibility() {
	s.UpdateAccessibility(ivantypes.DefaultAccessibility())
}
