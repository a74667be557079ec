package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"codeberg.org/snonux/slovnyk/internal/models"
	"codeberg.org/snonux/slovnyk/internal/playback"
)

// lockedWriter serialises writes from the prompt loop and the playback
// observers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

// Drill lets the user play cards of a category from a prompt. Every play
// request supersedes the clip that is still playing.
func (p *Processor) Drill(ctx context.Context, in io.Reader, w io.Writer, name string) error {
	category, err := p.category(ctx, name)
	if err != nil {
		return err
	}
	if len(category.Cards) == 0 {
		return fmt.Errorf("category %s has no cards", name)
	}

	player, err := p.controller()
	if err != nil {
		return err
	}
	defer player.Stop()

	out := &lockedWriter{w: w}
	unsubscribe := player.Subscribe(func(ev playback.Event) {
		if ev.Kind == playback.Failed {
			out.printf("playback of %s failed: %v\n", ev.Session.Requester, ev.Err)
		}
	})
	defer unsubscribe()

	for i, card := range category.Cards {
		first, _ := card.Sides(p.flags.Lang)
		out.printf("%3d. %s\n", i+1, formatSide(first))
	}
	out.printf("Enter <n> or <n>b to play a card, s to stop, q to quit.\n")

	quit := make(chan struct{})
	defer close(quit)

	lines, readErr := readLines(in, quit)
	for {
		out.printf("> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return nil
			}
			line = l
		}

		cmd := strings.TrimSpace(line)
		switch cmd {
		case "":
			continue
		case "q", "quit":
			return nil
		case "s", "stop":
			player.Stop()
			continue
		}

		index, back, err := parseDrillCommand(cmd, len(category.Cards))
		if err != nil {
			out.printf("%v\n", err)
			continue
		}

		side := drillSide(category.Cards[index], p.flags.Lang, back)
		requester := fmt.Sprintf("%s#%d/%s", category.Name, index+1, side.Language)

		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := player.Play(ctx, locatorFor(side), requester); err != nil {
			out.printf("%v\n", err)
			continue
		}
		out.printf("%s\n", formatSide(side))
	}
}

// readLines scans in on its own goroutine so a blocked read does not hold
// up cancellation. The error channel yields once after lines is closed.
// Closing quit releases the goroutine once its current read returns.
func readLines(in io.Reader, quit <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
		errs <- scanner.Err()
	}()

	return lines, errs
}

// parseDrillCommand parses "<n>" and "<n>b" into a zero based card index.
func parseDrillCommand(cmd string, cards int) (index int, back bool, err error) {
	number, back := strings.CutSuffix(cmd, "b")

	n, err := strconv.Atoi(number)
	if err != nil {
		return 0, false, fmt.Errorf("unknown command %q", cmd)
	}
	if n < 1 || n > cards {
		return 0, false, fmt.Errorf("no card %d (1-%d)", n, cards)
	}

	return n - 1, back, nil
}

func drillSide(card models.Card, lang string, back bool) models.Side {
	first, second := card.Sides(lang)
	if back {
		return second
	}
	return first
}
