package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArtifact_SingleFencedBlock(t *testing.T) {
	raw := "Sure, here:\n```html\n<div>hi</div>\n```\nDone."

	displayText, code, found := ExtractArtifact(raw)

	require.True(t, found)
	assert.Equal(t, "<div>hi</div>", code)
	assert.NotContains(t, displayText, "```")
	assert.Contains(t, displayText, "Sure, here:")
	assert.Contains(t, displayText, "Done.")
	assert.Contains(t, displayText, ArtifactPlaceholder)
}

func TestExtractArtifact_NoBlock(t *testing.T) {
	raw := "Just a plain explanation, no code here."

	displayText, code, found := ExtractArtifact(raw)

	assert.False(t, found)
	assert.Empty(t, code)
	assert.Equal(t, raw, displayText)
}

func TestExtractArtifact_IdempotentOnCleanText(t *testing.T) {
	raw := "Sure, here:\n```python\nprint('hi')\n```\nDone."

	displayText, _, found := ExtractArtifact(raw)
	require.True(t, found)

	// Re-running extraction on already-clean text returns it unchanged.
	again, code, found := ExtractArtifact(displayText)
	assert.False(t, found)
	assert.Empty(t, code)
	assert.Equal(t, displayText, again)
}

func TestExtractArtifact_LanguageTagIgnored(t *testing.T) {
	for _, tag := range []string{"", "html", "tsx", "python", "js"} {
		raw := "Before\n```" + tag + "\nbody\n```\nAfter"
		_, code, found := ExtractArtifact(raw)
		require.True(t, found, "tag %q", tag)
		assert.Equal(t, "body", code, "tag %q", tag)
	}
}

func TestExtractArtifact_FirstBlockOnly(t *testing.T) {
	raw := "One:\n```\nfirst\n```\nTwo:\n```\nsecond\n```"

	displayText, code, found := ExtractArtifact(raw)

	require.True(t, found)
	assert.Equal(t, "first", code)
	// The second block stays in the display text untouched.
	assert.Contains(t, displayText, "second")
}

func TestExtractArtifact_UnterminatedFence(t *testing.T) {
	raw := "Here you go:\n```html\n<div>never closed"

	displayText, code, found := ExtractArtifact(raw)

	assert.False(t, found)
	assert.Empty(t, code)
	assert.Equal(t, raw, displayText)
}

func TestExtractArtifact_TrimsArtifactWhitespace(t *testing.T) {
	raw := "```\n\n  <p>x</p>  \n\n```"

	_, code, found := ExtractArtifact(raw)

	require.True(t, found)
	assert.Equal(t, "<p>x</p>", code)
}

func TestExtractArtifact_EmptyInput(t *testing.T) {
	displayText, code, found := ExtractArtifact("")

	assert.False(t, found)
	assert.Empty(t, code)
	assert.Empty(t, displayText)
}

func TestExtractArtifact_BlockOnlyReply(t *testing.T) {
	raw := "```javascript\nconsole.log(1)\n```"

	displayText, code, found := ExtractArtifact(raw)

	require.True(t, found)
	assert.Equal(t, "console.log(1)", code)
	assert.Equal(t, ArtifactPlaceholder, strings.TrimSpace(displayText))
}
