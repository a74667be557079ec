package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/tts"
)

// ErrPlaybackStart is returned when a clip could not be opened or started.
var ErrPlaybackStart = errors.New("playback could not be started")

// State is the controller state
type State int

const (
	Idle State = iota
	Playing
)

// String returns the state name
func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Session describes one play request.
type Session struct {
	Token     uint64 // monotonically increasing per controller
	ID        uuid.UUID
	Locator   tts.Locator
	Requester string // who asked for the clip, e.g. "card 3 ua"
	StartedAt time.Time

	done chan struct{}
}

// closedDone is handed out for zero sessions.
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed once the session stopped playing for any reason. For a
// zero Session it is already closed.
func (s Session) Done() <-chan struct{} {
	if s.done == nil {
		return closedDone
	}
	return s.done
}

// EventKind tells observers what happened to a session.
type EventKind int

const (
	Started EventKind = iota
	Stopped
	Completed
	Failed
)

// String returns the event kind name
func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to observers after each state change.
type Event struct {
	Kind    EventKind
	Session Session
	Err     error
}

// Observer receives controller events. Observers run outside the
// controller lock and may call back into the controller.
type Observer func(Event)

type subscription struct {
	id       uint64
	observer Observer
}

type active struct {
	session Session
	handle  Handle
}

// Controller enforces single-flight playback.
type Controller struct {
	opener Opener
	logger *zap.SugaredLogger

	mu        sync.Mutex
	token     uint64
	current   *active
	nextSub   uint64
	observers []subscription
}

// NewController creates a controller playing clips through opener.
func NewController(opener Opener, logger *zap.SugaredLogger) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		opener: opener,
		logger: logger,
	}
}

// Subscribe registers an observer for all future events. The returned
// func removes it again; calling it more than once is harmless.
func (c *Controller) Subscribe(o Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.observers = append(c.observers, subscription{id: id, observer: o})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.observers {
			if sub.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// State returns Idle or Playing
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Idle
	}
	return Playing
}

// Current returns the playing session, if any.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Session{}, false
	}
	return c.current.session, true
}

// Play stops whatever is playing and starts the clip at locator. It
// returns as soon as the new clip has been started; playback itself
// proceeds in the background.
func (c *Controller) Play(ctx context.Context, locator tts.Locator, requester string) (Session, error) {
	c.mu.Lock()

	var events []Event
	if ev, ok := c.stopLocked(); ok {
		events = append(events, ev)
	}

	c.token++
	session := Session{
		Token:     c.token,
		ID:        uuid.New(),
		Locator:   locator,
		Requester: requester,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	handle, err := c.opener.Open(ctx, locator)
	if err == nil {
		if err = handle.Start(); err != nil {
			handle.Stop()
		}
	}
	if err != nil {
		close(session.done)
		c.mu.Unlock()

		c.logger.Warnw("Playback start failed", "token", session.Token, "requester", requester, "error", err)
		c.dispatch(append(events, Event{Kind: Failed, Session: session, Err: err}))
		return Session{}, fmt.Errorf("%w: %w", ErrPlaybackStart, err)
	}

	c.current = &active{session: session, handle: handle}
	c.mu.Unlock()

	c.logger.Debugw("Playback started", "token", session.Token, "session", session.ID, "requester", requester)
	go c.watch(session, handle)

	c.dispatch(append(events, Event{Kind: Started, Session: session}))
	return session, nil
}

// Stop pauses and rewinds the playing clip. It does nothing when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	ev, ok := c.stopLocked()
	c.mu.Unlock()

	if ok {
		c.dispatch([]Event{ev})
	}
}

// Wait blocks until the session stopped playing or ctx is done.
func (c *Controller) Wait(ctx context.Context, s Session) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopLocked must be called with c.mu held.
func (c *Controller) stopLocked() (Event, bool) {
	if c.current == nil {
		return Event{}, false
	}

	cur := c.current
	c.current = nil
	cur.handle.Stop()
	close(cur.session.done)

	c.logger.Debugw("Playback stopped", "token", cur.session.Token, "requester", cur.session.Requester)
	return Event{Kind: Stopped, Session: cur.session}, true
}

// watch waits for the handle to finish and clears the session only if it
// is still the current one.
func (c *Controller) watch(s Session, h Handle) {
	<-h.Done()
	err := h.Err()

	c.mu.Lock()
	if c.current == nil || c.current.session.Token != s.Token {
		c.mu.Unlock()
		c.logger.Debugw("Ignoring stale playback completion", "token", s.Token)
		return
	}
	c.current = nil
	close(s.done)
	c.mu.Unlock()

	ev := Event{Kind: Completed, Session: s}
	if err != nil {
		ev.Kind = Failed
		ev.Err = err
		c.logger.Warnw("Playback failed", "token", s.Token, "requester", s.Requester, "error", err)
	} else {
		c.logger.Debugw("Playback finished", "token", s.Token, "requester", s.Requester)
	}
	c.dispatch([]Event{ev})
}

func (c *Controller) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}

	c.mu.Lock()
	observers := make([]subscription, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, ev := range events {
		for _, sub := range observers {
			sub.observer(ev)
		}
	}
}
