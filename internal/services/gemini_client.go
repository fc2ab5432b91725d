package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ivancode/internal/logger"
	"ivancode/pkg/ivantypes"
)

// generationTemperature matches the original product tuning.
const generationTemperature float32 = 0.7

// GeminiClient implements the ivantypes.ModelClient interface for the Google
// Gemini API. The underlying genai client is created lazily on first use.
type GeminiClient struct {
	apiKey   string
	client   *genai.Client
	fenceFor func(language string) string
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
// fenceFor maps a target language to the fenced-block tag used in the system
// instruction; nil falls back to the language id itself.
func NewGeminiClient(apiKey string, fenceFor func(string) string) *GeminiClient {
	return &GeminiClient{
		apiKey:   apiKey,
		fenceFor: fenceFor,
	}
}

// ProviderName returns the provider name for this client.
func (c *GeminiClient) ProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has an API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

// initializeClientIfNeeded creates the genai client on first use.
func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("google API key not configured (set GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini")
	return nil
}

// Generate sends the conversation plus the new prompt to Gemini and returns
// the raw reply text. Code is left empty: artifact extraction happens in the
// session coordinator, which supports upstreams that do not pre-split.
func (c *GeminiClient) Generate(ctx context.Context, history []ivantypes.Message, prompt string, settings ivantypes.Settings) (ivantypes.ServiceResponse, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return ivantypes.ServiceResponse{}, err
	}

	contents := c.convertMessages(history)
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	})

	temperature := generationTemperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.systemInstruction(settings.Language), genai.RoleUser),
		Temperature:       &temperature,
	}

	logger.Debug("Gemini request starting", "model", settings.Model, "contents", len(contents))
	result, err := c.client.Models.GenerateContent(ctx, settings.Model, contents, config)
	if err != nil {
		logger.Error("Gemini request failed", "error", err)
		return ivantypes.ServiceResponse{}, fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return ivantypes.ServiceResponse{}, fmt.Errorf("no content in Gemini response")
	}

	logger.Debug("Gemini response received", "content_length", len(text))
	return ivantypes.ServiceResponse{Text: text}, nil
}

// convertMessages maps transcript messages to Gemini contents. Roles are
// already "user"/"model", which is the Gemini convention.
func (c *GeminiClient) convertMessages(history []ivantypes.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		role := genai.RoleUser
		if msg.Role == ivantypes.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Text}},
		})
	}
	return contents
}

// systemInstruction builds the architect persona prompt for the target
// language. The model must keep code out of the conversational text and emit a
// single complete fenced file, which is what the extractor relies on.
func (c *GeminiClient) systemInstruction(language string) string {
	fence := language
	if c.fenceFor != nil {
		fence = c.fenceFor(language)
	}

	return fmt.Sprintf(`You are "Ivan Code", a world-class Senior Software Architect.
Current Language Mode: %s.

Guidelines:
1. Provide a SINGLE complete file code block inside `+"```%s ... ```"+` tags.
2. If the user asks for a website (HTML), include CSS in <style> and JS in <script> tags within a single HTML file.
3. CRITICAL: Do NOT write the code in the conversational text. Write "%s" in your text response, and place the actual code in the code block.
4. Be concise in your text explanations.
5. If asked non-coding questions, politely steer back to tech.`,
		strings.ToUpper(language), fence, ArtifactPlaceholder)
}

var _ ivantypes.ModelClient = (*GeminiClient)(nil)
