package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

// the speaker can only be initialised once per process
var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepOpener fetches MP3 clips over HTTP and plays them on the local
// speaker.
type BeepOpener struct {
	client       *http.Client
	sampleRate   beep.SampleRate
	volumeDB     float64
	fetchTimeout time.Duration
	userAgent    string
	logger       *zap.SugaredLogger
}

// NewBeepOpener creates an in-process opener.
func NewBeepOpener(cfg *Config, logger *zap.SugaredLogger) *BeepOpener {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BeepOpener{
		client:       &http.Client{Timeout: timeout},
		sampleRate:   beep.SampleRate(rate),
		volumeDB:     cfg.VolumeDB,
		fetchTimeout: timeout,
		userAgent:    cfg.UserAgent,
		logger:       logger,
	}
}

// Open makes sure the speaker is ready. Fetching happens after Start.
func (o *BeepOpener) Open(ctx context.Context, locator tts.Locator) (Handle, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(o.sampleRate, o.sampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", speakerErr)
	}

	return &beepHandle{
		opener:  o,
		locator: locator,
		done:    make(chan struct{}),
	}, nil
}

// fetch downloads and decodes the clip. The body is buffered so the
// decoder can seek back to the start on Stop.
func (o *BeepOpener) fetch(ctx context.Context, locator tts.Locator) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator.String(), nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to create request: %w", err)
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to fetch clip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, beep.Format{}, fmt.Errorf("failed to fetch clip: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to read clip: %w", err)
	}

	stream, format, err := mp3.Decode(seekableBuffer{bytes.NewReader(data)})
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode clip: %w", err)
	}
	return stream, format, nil
}

type seekableBuffer struct {
	*bytes.Reader
}

func (seekableBuffer) Close() error { return nil }

type beepHandle struct {
	opener  *BeepOpener
	locator tts.Locator

	mu      sync.Mutex
	cancel  context.CancelFunc
	stream  beep.StreamSeekCloser
	ctrl    *beep.Ctrl
	stopped bool
	err     error

	done chan struct{}
	once sync.Once
}

func (h *beepHandle) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.opener.fetchTimeout)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go h.run(ctx)
	return nil
}

func (h *beepHandle) run(ctx context.Context) {
	defer h.cancel()

	stream, format, err := h.opener.fetch(ctx, h.locator)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		return
	}
	if err != nil {
		h.mu.Unlock()
		h.finish(err)
		return
	}

	var s beep.Streamer = stream
	if format.SampleRate != h.opener.sampleRate {
		s = beep.Resample(4, format.SampleRate, h.opener.sampleRate, stream)
	}
	h.stream = stream
	h.ctrl = &beep.Ctrl{Streamer: withGain(s, h.opener.volumeDB)}
	ctrl := h.ctrl
	h.mu.Unlock()

	// The callback runs on the speaker goroutine with the speaker locked.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { h.finish(nil) })))
}

// Stop pauses the clip, seeks back to the first sample and detaches it
// from the mixer.
func (h *beepHandle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	cancel, ctrl, stream := h.cancel, h.ctrl, h.stream
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ctrl != nil {
		speaker.Lock()
		ctrl.Paused = true
		_ = stream.Seek(0)
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	h.finish(nil)
}

func (h *beepHandle) finish(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.err = err
		stream := h.stream
		h.mu.Unlock()

		if stream != nil {
			go stream.Close()
		}
		close(h.done)
	})
}

func (h *beepHandle) Done() <-chan struct{} {
	return h.done
}

func (h *beepHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// decibel is the amplitude ratio of one dB, so effects.Volume's Volume
// field reads as a dB gain.
var decibel = math.Pow(10, 1.0/20)

func withGain(s beep.Streamer, db float64) *effects.Volume {
	return &effects.Volume{Streamer: s, Base: decibel, Volume: db}
}
