package ivantypes

// Settings holds the per-user generation configuration.
// Model and Language are validated against the embedded catalogs.
// Single value per user, last write wins.
type Settings struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

// DefaultSettings returns the settings used before the user has saved any.
func DefaultSettings() Settings {
	return Settings{
		Model:    "gemini-3-pro-preview",
		Language: "html",
	}
}

// AccessibilityState holds the per-user accessibility preferences.
// Single value per user, last write wins.
type AccessibilityState struct {
	HighContrast  bool    `json:"high_contrast"`
	FontSizeScale float64 `json:"font_size_scale"`
	ReducedMotion bool    `json:"reduced_motion"`
	DyslexicFont  bool    `json:"dyslexic_font"`
	ReadingGuide  bool    `json:"reading_guide"`
}

// DefaultAccessibility returns the state used at first run and on explicit reset.
func DefaultAccessibility() AccessibilityState {
	return AccessibilityState{
		HighContrast:  false,
		FontSizeScale: 1.0,
		ReducedMotion: false,
		DyslexicFont:  false,
		ReadingGuide:  false,
	}
}
