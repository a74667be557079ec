package phonetic

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAITranscriber transcribes with OpenAI chat completions.
type OpenAITranscriber struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAITranscriber creates a transcriber. An empty model selects
// gpt-4o-mini.
func NewOpenAITranscriber(apiKey, model string) *OpenAITranscriber {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranscriber{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClient(apiKey),
	}
}

// Name returns the provider name
func (t *OpenAITranscriber) Name() string {
	return "openai"
}

// Transcribe implements Transcriber
func (t *OpenAITranscriber) Transcribe(ctx context.Context, language, text string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("openai: %w", ErrNoAPIKey)
	}

	content, err := prompt(language, text)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: content,
			},
		},
		MaxTokens:   100,
		Temperature: 0.2,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return clean(resp.Choices[0].Message.Content), nil
}
