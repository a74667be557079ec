package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

// lookPath is replaced in tests
var lookPath = exec.LookPath

// ExecOpener plays locators with an external command-line player.
type ExecOpener struct {
	command string
	logger  *zap.SugaredLogger
}

// NewExecOpener creates an opener. An empty command picks the first
// installed player that can stream from a URL.
func NewExecOpener(command string, logger *zap.SugaredLogger) *ExecOpener {
	return &ExecOpener{command: command, logger: logger}
}

// Open prepares the player process without starting it.
func (o *ExecOpener) Open(ctx context.Context, locator tts.Locator) (Handle, error) {
	name, args, err := o.playerCommand(locator)
	if err != nil {
		return nil, err
	}
	o.logger.Debugw("Prepared player command", "player", name)

	// The process must outlive the request context, so no CommandContext.
	return &execHandle{
		cmd:  exec.Command(name, args...),
		done: make(chan struct{}),
	}, nil
}

// playerCommand returns the command line for playing locator
func (o *ExecOpener) playerCommand(locator tts.Locator) (string, []string, error) {
	if fields := strings.Fields(o.command); len(fields) > 0 {
		return fields[0], append(fields[1:], locator.String()), nil
	}

	// mpg123 first since it handles MP3 streams best
	if _, err := lookPath("mpg123"); err == nil {
		return "mpg123", []string{"-q", locator.String()}, nil
	} else if _, err := lookPath("ffplay"); err == nil {
		return "ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", locator.String()}, nil
	} else if _, err := lookPath("mpv"); err == nil {
		return "mpv", []string{"--no-video", "--really-quiet", locator.String()}, nil
	}
	return "", nil, fmt.Errorf("no audio player found. Install mpg123, ffplay or mpv")
}

type execHandle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
}

func (h *execHandle) Start() error {
	if err := h.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", h.cmd.Path, err)
	}

	go func() {
		err := h.cmd.Wait()

		h.mu.Lock()
		// a killed player is not a failure
		if !h.stopped && err != nil {
			h.err = fmt.Errorf("player exited: %w", err)
		}
		h.mu.Unlock()

		close(h.done)
	}()
	return nil
}

// Stop kills the player; the next clip always starts from the beginning.
func (h *execHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
}

func (h *execHandle) Done() <-chan struct{} {
	return h.done
}

func (h *execHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
