package services

import (
	"regexp"
	"strings"
)

// ArtifactPlaceholder replaces the fenced block in the conversational text so
// the transcript reads naturally while the code lives in the editor pane.
const ArtifactPlaceholder = "(code updated in the editor pane)"

// fencedBlockPattern matches the first triple-backtick fenced block. The
// language tag is ignored and the interior is captured. An unterminated fence
// simply does not match, so malformed replies degrade to "no artifact".
var fencedBlockPattern = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\n(.*?)```")

// ExtractArtifact splits a raw model reply into conversational text and an
// optional code artifact. Only the first fenced block counts: the model
// contract allows at most one artifact per turn. Pure function, never panics.
//
// When a block is found, the artifact is the block interior with surrounding
// whitespace trimmed, and the display text is the reply with the block replaced
// by ArtifactPlaceholder, then trimmed. Without a block the reply is returned
// unchanged, which also makes extraction idempotent on already-clean text.
func ExtractArtifact(raw string) (displayText string, code string, found bool) {
	loc := fencedBlockPattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return raw, "", false
	}

	code = strings.TrimSpace(raw[loc[2]:loc[3]])
	displayText = strings.TrimSpace(raw[:loc[0]] + "\n" + ArtifactPlaceholder + "\n" + raw[loc[1]:])
	return displayText, code, true
}

// ExtractService wraps artifact extraction in the service registry so callers
// resolve it like any other service.
type ExtractService struct {
	initialized bool
}

// NewExtractService creates a new ExtractService instance.
func NewExtractService() *ExtractService {
	return &ExtractService{}
}

// Name returns the service name "extract" for registration.
func (e *ExtractService) Name() string {
	return "extract"
}

// Initialize sets up the ExtractService for operation.
func (e *ExtractService) Initialize() error {
	e.initialized = true
	return nil
}

// Extract splits a raw model reply. See ExtractArtifact.
func (e *ExtractService) Extract(raw string) (string, string, bool) {
	return ExtractArtifact(raw)
}
