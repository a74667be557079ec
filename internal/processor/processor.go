package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"codeberg.org/snonux/slovnyk/internal/archive"
	"codeberg.org/snonux/slovnyk/internal/cli"
	"codeberg.org/snonux/slovnyk/internal/dataset"
	"codeberg.org/snonux/slovnyk/internal/export"
	"codeberg.org/snonux/slovnyk/internal/models"
	"codeberg.org/snonux/slovnyk/internal/phonetic"
	"codeberg.org/snonux/slovnyk/internal/playback"
	"codeberg.org/snonux/slovnyk/internal/store"
	"codeberg.org/snonux/slovnyk/internal/tts"
)

// Processor runs the subcommands for one invocation
type Processor struct {
	flags  *cli.Flags
	logger *zap.SugaredLogger

	opener      playback.Opener
	player      *playback.Controller
	transcriber phonetic.Transcriber
	db          *store.Store
}

// Option customises a Processor
type Option func(*Processor)

// WithOpener plays clips through opener instead of the configured backend
func WithOpener(opener playback.Opener) Option {
	return func(p *Processor) { p.opener = opener }
}

// WithTranscriber uses t instead of the configured transcription provider
func WithTranscriber(t phonetic.Transcriber) Option {
	return func(p *Processor) { p.transcriber = t }
}

// NewProcessor creates a new processor
func NewProcessor(flags *cli.Flags, logger *zap.SugaredLogger, opts ...Option) (*Processor, error) {
	if flags.Lang != models.LangCzech && flags.Lang != models.LangUkrainian {
		return nil, fmt.Errorf("unsupported display language %q (use cz or ua)", flags.Lang)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	p := &Processor{flags: flags, logger: logger}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Close stops playback and closes the database
func (p *Processor) Close() error {
	defer p.logger.Sync()

	if p.player != nil {
		p.player.Stop()
	}
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *Processor) database() (*store.Store, error) {
	if p.db == nil {
		db, err := store.Open(p.flags.Database)
		if err != nil {
			return nil, err
		}
		p.logger.Debugw("Opened database", "path", p.flags.Database)
		p.db = db
	}
	return p.db, nil
}

func (p *Processor) controller() (*playback.Controller, error) {
	if p.player != nil {
		return p.player, nil
	}

	if p.opener == nil {
		cfg, err := playback.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		if p.flags.PlayerBackend != "" {
			cfg.Backend = p.flags.PlayerBackend
		}
		if p.flags.PlayerCommand != "" {
			cfg.Command = p.flags.PlayerCommand
		}

		if p.opener, err = playback.NewOpener(cfg, p.logger); err != nil {
			return nil, err
		}
	}

	p.player = playback.NewController(p.opener, p.logger)
	return p.player, nil
}

func (p *Processor) newTranscriber() (phonetic.Transcriber, error) {
	if p.transcriber != nil {
		return p.transcriber, nil
	}

	var t phonetic.Transcriber
	switch p.flags.Provider {
	case "openai":
		t = phonetic.NewOpenAITranscriber(cli.GetOpenAIKey(), p.flags.OpenAIModel)
	case "gemini":
		t = phonetic.NewGeminiTranscriber(cli.GetGeminiKey(), p.flags.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown transcription provider: %s", p.flags.Provider)
	}

	return phonetic.NewBreakerTranscriber(t, 3, 30*time.Second, p.logger), nil
}

// categories loads every category, from the data directory when one is
// configured and from the database otherwise.
func (p *Processor) categories(ctx context.Context) ([]models.Category, error) {
	if p.flags.DataDir != "" {
		return dataset.LoadDir(p.flags.DataDir)
	}

	db, err := p.database()
	if err != nil {
		return nil, err
	}
	return db.Categories(ctx)
}

func (p *Processor) category(ctx context.Context, name string) (models.Category, error) {
	if p.flags.DataDir != "" {
		categories, err := dataset.LoadDir(p.flags.DataDir)
		if err != nil {
			return models.Category{}, err
		}
		return dataset.Find(categories, name)
	}

	db, err := p.database()
	if err != nil {
		return models.Category{}, err
	}
	return db.Category(ctx, name)
}

// Categories lists all categories with their card counts
func (p *Processor) Categories(ctx context.Context, w io.Writer) error {
	categories, err := p.categories(ctx)
	if err != nil {
		return err
	}

	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories found. Import some with 'slovnyk import'.")
		return nil
	}

	for _, c := range categories {
		fmt.Fprintf(w, "%-20s %d cards\n", c.Name, len(c.Cards))
	}
	return nil
}

// Show prints the cards of a category in display order
func (p *Processor) Show(ctx context.Context, w io.Writer, name string) error {
	category, err := p.category(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%d cards)\n", category.Name, len(category.Cards))
	for i, card := range category.Cards {
		first, second := card.Sides(p.flags.Lang)
		fmt.Fprintf(w, "%3d. %s | %s\n", i+1, formatSide(first), formatSide(second))
		fmt.Fprintf(w, "     %s\n", locatorFor(first))
	}
	return nil
}

func formatSide(s models.Side) string {
	text := tts.StripMarkup(s.Text)
	if s.Transcription == "" {
		return text
	}
	return fmt.Sprintf("%s [%s]", text, s.Transcription)
}

func locatorFor(s models.Side) tts.Locator {
	return tts.Resolve(tts.SpeechLanguage(s.Language), s.Text)
}

// Say pronounces text and waits until playback finished
func (p *Processor) Say(ctx context.Context, w io.Writer, lang, text string) error {
	if lang != models.LangCzech && lang != models.LangUkrainian {
		return fmt.Errorf("unsupported language %q (use cz or ua)", lang)
	}

	player, err := p.controller()
	if err != nil {
		return err
	}

	// Terminal events may arrive before Play has returned the token.
	finished := make(chan playback.Event, 8)
	unsubscribe := player.Subscribe(func(ev playback.Event) {
		if ev.Kind == playback.Started {
			return
		}
		select {
		case finished <- ev:
		default:
		}
	})
	defer unsubscribe()

	locator := tts.Resolve(tts.SpeechLanguage(lang), text)
	fmt.Fprintf(w, "Playing: %s\n", tts.StripMarkup(text))

	session, err := player.Play(ctx, locator, "say")
	if err != nil {
		return err
	}

	for {
		select {
		case ev := <-finished:
			if ev.Session.Token != session.Token {
				continue
			}
			if ev.Kind == playback.Failed {
				return fmt.Errorf("playback failed: %w", ev.Err)
			}
			return nil
		case <-ctx.Done():
			player.Stop()
			return ctx.Err()
		}
	}
}

// Export writes the category as <category>.txt into the exports directory
func (p *Processor) Export(ctx context.Context, w io.Writer, name string) error {
	category, err := p.category(ctx, name)
	if err != nil {
		return err
	}

	cfg, err := p.exportConfig()
	if err != nil {
		return err
	}

	d, err := export.Export(category.Records(), category.Name, cfg, export.NewFilePackager(p.flags.ExportDir))
	if err != nil {
		return err
	}

	p.logger.Infow("Exported category", "category", category.Name, "cards", len(category.Cards), "bytes", d.Size)
	fmt.Fprintf(w, "Exported %d cards as %s\n", len(category.Cards), d.SuggestedFileName)
	fmt.Fprintf(w, "%s\n", d.Locator)
	return nil
}

func (p *Processor) exportConfig() (*export.Config, error) {
	cfg := export.NewConfig()
	cfg.Field.SetCustom(p.flags.FieldCustom)
	cfg.Record.SetCustom(p.flags.RecordCustom)

	if err := cfg.Field.Select(p.flags.Field); err != nil {
		return nil, fmt.Errorf("field separator: %w", err)
	}
	if err := cfg.Record.Select(p.flags.Record); err != nil {
		return nil, fmt.Errorf("record separator: %w", err)
	}
	return cfg, nil
}

// Import loads dataset files into the database. Without files every
// category of the data directory is imported.
func (p *Processor) Import(ctx context.Context, w io.Writer, files []string) error {
	var categories []models.Category

	if len(files) == 0 {
		if p.flags.DataDir == "" {
			return errors.New("no files given and no data directory configured")
		}
		loaded, err := dataset.LoadDir(p.flags.DataDir)
		if err != nil {
			return err
		}
		categories = loaded
	}

	for _, file := range files {
		category, err := dataset.LoadFile(file)
		if err != nil {
			return err
		}
		categories = append(categories, category)
	}

	db, err := p.database()
	if err != nil {
		return err
	}

	for _, c := range categories {
		if err := db.Import(ctx, c); err != nil {
			return err
		}
		fmt.Fprintf(w, "Imported %s: %d cards\n", c.Name, len(c.Cards))
	}
	return nil
}

// Enrich fills in missing transcriptions of a stored category
func (p *Processor) Enrich(ctx context.Context, w io.Writer, name string) error {
	db, err := p.database()
	if err != nil {
		return err
	}

	category, err := db.Category(ctx, name)
	if err != nil {
		return err
	}

	transcriber, err := p.newTranscriber()
	if err != nil {
		return err
	}

	enriched, changed, enrichErr := phonetic.NewEnricher(transcriber, p.flags.Parallel, p.logger).Enrich(ctx, category)

	// keep whatever succeeded, even after a failure
	for _, pos := range changed {
		card := enriched.Cards[pos]
		if err := db.SetTranscriptions(ctx, name, pos, card.PrimaryTranscription, card.SecondaryTranscription); err != nil {
			return err
		}
		first, second := card.Sides(p.flags.Lang)
		fmt.Fprintf(w, "  %s | %s\n", formatSide(first), formatSide(second))
	}

	fmt.Fprintf(w, "Updated %d of %d cards\n", len(changed), len(category.Cards))
	if enrichErr != nil {
		return fmt.Errorf("some transcriptions failed: %w", enrichErr)
	}
	return nil
}

// Archive moves the exports directory into the archive
func (p *Processor) Archive(_ context.Context, w io.Writer) error {
	path, err := archive.ArchiveExports(p.flags.ExportDir)
	if err != nil {
		return fmt.Errorf("failed to archive exports: %w", err)
	}

	fmt.Fprintf(w, "Exports directory archived to: %s\n", path)
	return nil
}
