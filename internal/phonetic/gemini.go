package phonetic

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiTranscriber transcribes with the Gemini API.
type GeminiTranscriber struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiTranscriber creates a transcriber. The client is created on
// first use.
func NewGeminiTranscriber(apiKey, model string) *GeminiTranscriber {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiTranscriber{apiKey: apiKey, model: model}
}

// Name returns the provider name
func (t *GeminiTranscriber) Name() string {
	return "gemini"
}

// Transcribe implements Transcriber
func (t *GeminiTranscriber) Transcribe(ctx context.Context, language, text string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrNoAPIKey)
	}

	content, err := prompt(language, text)
	if err != nil {
		return "", err
	}

	t.once.Do(func() {
		t.client, t.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  t.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if t.initErr != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", t.initErr)
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(content), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	answer := clean(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("no response from Gemini")
	}

	return answer, nil
}
