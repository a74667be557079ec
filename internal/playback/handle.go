package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

// Handle is one playable clip.
type Handle interface {
	// Start begins playback without waiting for it to finish
	Start() error

	// Stop pauses the clip and rewinds it to the beginning. It must not
	// block on playback and is safe to call more than once.
	Stop()

	// Done is closed when the clip ended, either naturally or after Stop
	Done() <-chan struct{}

	// Err reports why the clip ended abnormally; valid once Done is closed
	Err() error
}

// Opener creates handles for locators.
type Opener interface {
	Open(ctx context.Context, locator tts.Locator) (Handle, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(ctx context.Context, locator tts.Locator) (Handle, error)

// Open calls f
func (f OpenerFunc) Open(ctx context.Context, locator tts.Locator) (Handle, error) {
	return f(ctx, locator)
}

// Config selects and tunes the audio backend.
type Config struct {
	Backend      string        `env:"SLOVNYK_PLAYER_BACKEND" envDefault:"exec"` // exec or beep
	Command      string        `env:"SLOVNYK_PLAYER_COMMAND"`                   // external player for exec, e.g. "mpv --no-video"
	SampleRate   int           `env:"SLOVNYK_PLAYER_SAMPLE_RATE" envDefault:"44100"`
	VolumeDB     float64       `env:"SLOVNYK_PLAYER_VOLUME_DB" envDefault:"0"` // gain in dB, negative is quieter
	FetchTimeout time.Duration `env:"SLOVNYK_PLAYER_FETCH_TIMEOUT" envDefault:"15s"`
	UserAgent    string        `env:"SLOVNYK_PLAYER_USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64)"`
}

// ConfigFromEnv reads the player configuration from the environment.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse player config: %w", err)
	}
	return cfg, nil
}

// NewOpener creates the opener for the configured backend.
func NewOpener(cfg *Config, logger *zap.SugaredLogger) (Opener, error) {
	if cfg == nil {
		var err error
		if cfg, err = ConfigFromEnv(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	switch cfg.Backend {
	case "exec", "":
		return NewExecOpener(cfg.Command, logger), nil
	case "beep":
		return NewBeepOpener(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown player backend: %s", cfg.Backend)
	}
}
