package phonetic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/slovnyk/internal/models"
	"codeberg.org/snonux/slovnyk/internal/tts"
)

// Enricher fills empty transcriptions of a category.
type Enricher struct {
	transcriber Transcriber
	parallel    int
	logger      *zap.SugaredLogger
}

// NewEnricher creates an enricher running at most parallel requests at
// once.
func NewEnricher(transcriber Transcriber, parallel int, logger *zap.SugaredLogger) *Enricher {
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Enricher{transcriber: transcriber, parallel: parallel, logger: logger}
}

// Enrich returns a copy of category with missing transcriptions filled in
// and the positions of the cards that changed, in ascending order.
// Existing transcriptions are never overwritten. Cards that fail keep
// their empty transcription; their errors are joined into the returned
// error alongside the partial result.
func (e *Enricher) Enrich(ctx context.Context, category models.Category) (models.Category, []int, error) {
	out := models.Category{Name: category.Name, Cards: append([]models.Card(nil), category.Cards...)}
	changed := make([]bool, len(out.Cards))

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)

	for i := range out.Cards {
		card := &out.Cards[i]

		if card.PrimaryTranscription == "" && card.PrimaryText != "" {
			g.Go(func() error {
				tr, err := e.transcribe(gctx, models.LangCzech, card.PrimaryText)
				if err != nil {
					fail(fmt.Errorf("card %d (%s): %w", i, card.PrimaryText, err))
					return gctx.Err()
				}
				mu.Lock()
				card.PrimaryTranscription = tr
				changed[i] = true
				mu.Unlock()
				return nil
			})
		}

		if card.SecondaryTranscription == "" && card.SecondaryText != "" {
			g.Go(func() error {
				tr, err := e.transcribe(gctx, models.LangUkrainian, card.SecondaryText)
				if err != nil {
					fail(fmt.Errorf("card %d (%s): %w", i, card.SecondaryText, err))
					return gctx.Err()
				}
				mu.Lock()
				card.SecondaryTranscription = tr
				changed[i] = true
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	var positions []int
	for i, c := range changed {
		if c {
			positions = append(positions, i)
		}
	}

	e.logger.Infow("Enriched category",
		"category", category.Name,
		"provider", e.transcriber.Name(),
		"changed", len(positions),
		"failed", len(errs))

	return out, positions, errors.Join(errs...)
}

func (e *Enricher) transcribe(ctx context.Context, language, text string) (string, error) {
	plain := tts.StripMarkup(text)
	e.logger.Debugw("Requesting transcription", "language", language, "text", plain)
	return e.transcriber.Transcribe(ctx, language, plain)
}
