package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

// MockPlayer hands out MockHandles and records every call in order.
type MockPlayer struct {
	OpenErr  error
	StartErr error

	mu         sync.Mutex
	handles    []*MockHandle
	calls      []string
	maxPlaying int
}

// Open mocks opening a clip
func (m *MockPlayer) Open(locator tts.Locator) (*MockHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, fmt.Sprintf("open %s", locator))
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}

	h := &MockHandle{
		Locator:  locator,
		player:   m,
		startErr: m.StartErr,
		done:     make(chan struct{}),
	}
	m.handles = append(m.handles, h)
	return h, nil
}

// Calls returns a copy of the recorded calls
func (m *MockPlayer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Handles returns all handles opened so far
func (m *MockPlayer) Handles() []*MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockHandle(nil), m.handles...)
}

// Playing counts handles that are audible right now
func (m *MockPlayer) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playingLocked()
}

// MaxPlaying is the highest number of simultaneously audible handles seen
func (m *MockPlayer) MaxPlaying() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxPlaying
}

func (m *MockPlayer) playingLocked() int {
	n := 0
	for _, h := range m.handles {
		if h.started && !h.stopped && !h.finished {
			n++
		}
	}
	return n
}

// MockHandle is a clip that only ends when Complete is called. Stop does
// not close Done, which lets tests deliver late completions.
type MockHandle struct {
	Locator tts.Locator

	player   *MockPlayer
	startErr error

	started   bool
	stopped   bool
	finished  bool
	stopCalls int
	err       error
	done      chan struct{}
	once      sync.Once
}

// Start mocks starting playback
func (h *MockHandle) Start() error {
	p := h.player
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, fmt.Sprintf("start %s", h.Locator))
	if h.startErr != nil {
		return h.startErr
	}
	h.started = true
	if n := p.playingLocked(); n > p.maxPlaying {
		p.maxPlaying = n
	}
	return nil
}

// Stop mocks pausing and rewinding
func (h *MockHandle) Stop() {
	p := h.player
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, fmt.Sprintf("stop %s", h.Locator))
	h.stopped = true
	h.stopCalls++
}

// Complete simulates the clip ending on its own
func (h *MockHandle) Complete(err error) {
	h.once.Do(func() {
		p := h.player
		p.mu.Lock()
		h.finished = true
		h.err = err
		p.mu.Unlock()
		close(h.done)
	})
}

// Done returns the completion channel
func (h *MockHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the completion error
func (h *MockHandle) Err() error {
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	return h.err
}

// Stopped reports whether Stop was called
func (h *MockHandle) Stopped() bool {
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	return h.stopped
}

// StopCalls returns how often Stop was called
func (h *MockHandle) StopCalls() int {
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	return h.stopCalls
}

// ErrMockUnavailable is a canned transcription failure
var ErrMockUnavailable = errors.New("mock transcriber unavailable")

// MockTranscriber mocks the transcription service
type MockTranscriber struct {
	Transcriptions map[string]string
	Errors         map[string]error
	Fail           bool

	mu    sync.Mutex
	calls []string
}

// Transcribe mocks transcribing text
func (m *MockTranscriber) Transcribe(ctx context.Context, language, text string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf("Transcribe: %s (%s)", text, language))
	m.mu.Unlock()

	if m.Fail {
		return "", ErrMockUnavailable
	}
	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if tr, ok := m.Transcriptions[text]; ok {
		return tr, nil
	}
	return fmt.Sprintf("[%s]", text), nil
}

// Name returns the mock name
func (m *MockTranscriber) Name() string {
	return "mock"
}

// Calls returns a copy of the recorded calls
func (m *MockTranscriber) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
