package phonetic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/snonux/slovnyk/internal/models"
)

// ErrNoAPIKey is returned when a transcriber is used without credentials.
var ErrNoAPIKey = errors.New("API key not configured")

// Transcriber returns a reading aid for text written in language (cz or ua).
type Transcriber interface {
	Transcribe(ctx context.Context, language, text string) (string, error)
	Name() string
}

// prompt builds the instruction sent to the language model.
func prompt(language, text string) (string, error) {
	switch language {
	case models.LangCzech:
		return fmt.Sprintf("Transcribe the Czech text '%s' into Ukrainian Cyrillic letters so that a Ukrainian speaker pronounces it correctly. Respond with only the transcription, nothing else.", text), nil
	case models.LangUkrainian:
		return fmt.Sprintf("Transcribe the Ukrainian text '%s' into Czech Latin letters so that a Czech speaker pronounces it correctly. Respond with only the transcription, nothing else.", text), nil
	default:
		return "", fmt.Errorf("unsupported language: %s", language)
	}
}

// clean trims the model answer and removes quotes some models add.
func clean(answer string) string {
	answer = strings.TrimSpace(answer)
	return strings.Trim(answer, "\"'`")
}
