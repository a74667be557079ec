package phonetic

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/slovnyk/internal/testutil"
)

func TestPrompt(t *testing.T) {
	cz, err := prompt("cz", "pes")
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	if !strings.Contains(cz, "'pes'") || !strings.Contains(cz, "Cyrillic") {
		t.Errorf("Unexpected Czech prompt: %s", cz)
	}

	ua, err := prompt("ua", "собака")
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	if !strings.Contains(ua, "'собака'") || !strings.Contains(ua, "Latin") {
		t.Errorf("Unexpected Ukrainian prompt: %s", ua)
	}

	if _, err := prompt("bg", "куче"); err == nil {
		t.Error("Expected error for unsupported language")
	}
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"  пес \n":   "пес",
		"\"sobaka\"": "sobaka",
		"`kiška`":    "kiška",
	}
	for in, want := range tests {
		if got := clean(in); got != want {
			t.Errorf("clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoAPIKey(t *testing.T) {
	transcribers := []Transcriber{
		NewOpenAITranscriber("", ""),
		NewGeminiTranscriber("", ""),
	}

	for _, tr := range transcribers {
		t.Run(tr.Name(), func(t *testing.T) {
			_, err := tr.Transcribe(context.Background(), "cz", "pes")
			if !errors.Is(err, ErrNoAPIKey) {
				t.Errorf("Expected ErrNoAPIKey, got %v", err)
			}
		})
	}
}

func TestDefaultModels(t *testing.T) {
	if m := NewOpenAITranscriber("key", "").model; m != "gpt-4o-mini" {
		t.Errorf("OpenAI default model = %s", m)
	}
	if m := NewGeminiTranscriber("key", "").model; m != DefaultGeminiModel {
		t.Errorf("Gemini default model = %s", m)
	}
	if m := NewGeminiTranscriber("key", "gemini-pro").model; m != "gemini-pro" {
		t.Errorf("Gemini model = %s", m)
	}
}

func TestBreakerTranscriber(t *testing.T) {
	mock := &testutil.MockTranscriber{Fail: true}
	b := NewBreakerTranscriber(mock, 2, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := b.Transcribe(context.Background(), "cz", "pes"); !errors.Is(err, testutil.ErrMockUnavailable) {
			t.Fatalf("Call %d: expected mock error, got %v", i, err)
		}
	}

	// open now, the provider is not called again
	_, err := b.Transcribe(context.Background(), "cz", "pes")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
	if n := len(mock.Calls()); n != 2 {
		t.Errorf("Provider called %d times, want 2", n)
	}
}

func TestBreakerTranscriberPassesThrough(t *testing.T) {
	mock := &testutil.MockTranscriber{Transcriptions: map[string]string{"pes": "пес"}}
	b := NewBreakerTranscriber(mock, 0, time.Second, nil)

	got, err := b.Transcribe(context.Background(), "cz", "pes")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got != "пес" {
		t.Errorf("Transcribe() = %s, want пес", got)
	}
	if b.Name() != "mock" {
		t.Errorf("Name() = %s, want mock", b.Name())
	}
}

func TestOpenAITranscriberIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	got, err := NewOpenAITranscriber(apiKey, "").Transcribe(context.Background(), "cz", "děkuji")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got == "" {
		t.Error("Empty transcription")
	}
	t.Logf("Transcription for 'děkuji': %s", got)
}
