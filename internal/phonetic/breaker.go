package phonetic

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerTranscriber stops calling the wrapped transcriber after
// consecutive failures and lets a probe request through after a pause.
type BreakerTranscriber struct {
	next Transcriber
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTranscriber wraps next. The breaker opens after maxFailures
// consecutive failures and stays open for cooldown.
func NewBreakerTranscriber(next Transcriber, maxFailures uint32, cooldown time.Duration, logger *zap.SugaredLogger) *BreakerTranscriber {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if maxFailures == 0 {
		maxFailures = 3
	}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled run says nothing about the API
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("Transcription circuit breaker changed state",
				"provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerTranscriber{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Name returns the wrapped provider name
func (b *BreakerTranscriber) Name() string {
	return b.next.Name()
}

// Transcribe implements Transcriber. While the breaker is open it fails
// with gobreaker.ErrOpenState without calling the provider.
func (b *BreakerTranscriber) Transcribe(ctx context.Context, language, text string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Transcribe(ctx, language, text)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
