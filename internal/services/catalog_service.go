package services

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ivancode/internal/data/embedded"
	"ivancode/pkg/ivantypes"
)

// CatalogService exposes the embedded model and target-language catalogs.
// Settings validation, system-instruction fences, and export extensions all
// resolve through it.
type CatalogService struct {
	initialized bool
	models      []ivantypes.ModelSpec
	languages   []ivantypes.LanguageSpec
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService() *CatalogService {
	return &CatalogService{}
}

// Name returns the service name "catalog" for registration.
func (c *CatalogService) Name() string {
	return "catalog"
}

// Initialize parses the embedded catalog data.
func (c *CatalogService) Initialize() error {
	var modelCatalog ivantypes.ModelCatalog
	if err := yaml.Unmarshal(embedded.ModelCatalogData, &modelCatalog); err != nil {
		return fmt.Errorf("failed to parse embedded model catalog: %w", err)
	}

	var languageCatalog ivantypes.LanguageCatalog
	if err := yaml.Unmarshal(embedded.LanguageCatalogData, &languageCatalog); err != nil {
		return fmt.Errorf("failed to parse embedded language catalog: %w", err)
	}

	if len(modelCatalog.Models) == 0 {
		return fmt.Errorf("embedded model catalog is empty")
	}
	if len(languageCatalog.Languages) == 0 {
		return fmt.Errorf("embedded language catalog is empty")
	}

	c.models = modelCatalog.Models
	c.languages = languageCatalog.Languages
	c.initialized = true
	return nil
}

// Models returns the model catalog entries.
func (c *CatalogService) Models() []ivantypes.ModelSpec {
	return c.models
}

// Languages returns the language catalog entries.
func (c *CatalogService) Languages() []ivantypes.LanguageSpec {
	return c.languages
}

// IsValidModel reports whether id names a catalog model.
func (c *CatalogService) IsValidModel(id string) bool {
	for _, m := range c.models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// IsValidLanguage reports whether id names a catalog language.
func (c *CatalogService) IsValidLanguage(id string) bool {
	for _, l := range c.languages {
		if l.ID == id {
			return true
		}
	}
	return false
}

// ExtensionFor returns the export file extension for a language.
// Unknown languages fall back to "html", matching the export contract.
func (c *CatalogService) ExtensionFor(language string) string {
	for _, l := range c.languages {
		if l.ID == language && l.Extension != "" {
			return l.Extension
		}
	}
	return "html"
}

// FenceFor returns the fenced-block language tag used in the system instruction.
func (c *CatalogService) FenceFor(language string) string {
	for _, l := range c.languages {
		if l.ID == language && l.Fence != "" {
			return l.Fence
		}
	}
	return language
}

// DefaultSettings returns the catalog-flagged defaults, falling back to the
// first entry of each catalog when nothing is flagged.
func (c *CatalogService) DefaultSettings() ivantypes.Settings {
	settings := ivantypes.Settings{
		Model:    c.models[0].ID,
		Language: c.languages[0].ID,
	}
	for _, m := range c.models {
		if m.Default {
			settings.Model = m.ID
		}
	}
	for _, l := range c.languages {
		if l.Default {
			settings.Language = l.ID
		}
	}
	return settings
}
