package ivantypes

// ModelSpec describes one entry of the embedded model catalog.
type ModelSpec struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Default     bool   `yaml:"default,omitempty"`
}

// LanguageSpec describes one entry of the embedded target-language catalog.
// Extension is the file extension used when exporting an artifact; Fence is the
// language tag placed on the fenced block in the system instruction.
type LanguageSpec struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Extension   string `yaml:"extension"`
	Fence       string `yaml:"fence,omitempty"`
	Default     bool   `yaml:"default,omitempty"`
}

// ModelCatalog is the parsed form of the embedded models YAML file.
type ModelCatalog struct {
	Models []ModelSpec `yaml:"models"`
}

// LanguageCatalog is the parsed form of the embedded languages YAML file.
type LanguageCatalog struct {
	Languages []LanguageSpec `yaml:"languages"`
}
