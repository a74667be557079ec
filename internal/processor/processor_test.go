package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/slovnyk/internal/cli"
	"codeberg.org/snonux/slovnyk/internal/dataset"
	"codeberg.org/snonux/slovnyk/internal/export"
	"codeberg.org/snonux/slovnyk/internal/playback"
	"codeberg.org/snonux/slovnyk/internal/testutil"
	"codeberg.org/snonux/slovnyk/internal/tts"
)

func testFlags(t *testing.T) *cli.Flags {
	t.Helper()

	tmpDir := t.TempDir()
	flags := cli.NewFlags()
	flags.DataDir = testutil.CreateTestDataset(t)
	flags.Database = filepath.Join(tmpDir, "slovnyk.db")
	flags.ExportDir = filepath.Join(tmpDir, "exports")
	return flags
}

func newTestProcessor(t *testing.T, flags *cli.Flags, opts ...Option) (*Processor, *testutil.MockPlayer) {
	t.Helper()

	player := &testutil.MockPlayer{}
	opener := playback.OpenerFunc(func(ctx context.Context, locator tts.Locator) (playback.Handle, error) {
		h, err := player.Open(locator)
		if err != nil {
			return nil, err
		}
		return h, nil
	})

	p, err := NewProcessor(flags, nil, append([]Option{WithOpener(opener)}, opts...)...)
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	return p, player
}

func TestNewProcessorRejectsLanguage(t *testing.T) {
	flags := cli.NewFlags()
	flags.Lang = "bg"

	if _, err := NewProcessor(flags, nil); err == nil {
		t.Error("Expected error for unsupported display language")
	}
}

func TestCategoriesFromDataDir(t *testing.T) {
	p, _ := newTestProcessor(t, testFlags(t))

	var out bytes.Buffer
	if err := p.Categories(context.Background(), &out); err != nil {
		t.Fatalf("Categories failed: %v", err)
	}

	for _, want := range []string{"fraze", "ovoce", "zvirata", "2 cards"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q:\n%s", want, out.String())
		}
	}
}

func TestImportThenReadFromDatabase(t *testing.T) {
	flags := testFlags(t)
	p, _ := newTestProcessor(t, flags)
	ctx := context.Background()

	var out bytes.Buffer
	if err := p.Import(ctx, &out, nil); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !strings.Contains(out.String(), "Imported zvirata: 2 cards") {
		t.Errorf("Unexpected import output:\n%s", out.String())
	}

	// without a data directory the database is used
	flags.DataDir = ""
	out.Reset()
	if err := p.Categories(ctx, &out); err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if n := strings.Count(out.String(), "2 cards"); n != 3 {
		t.Errorf("Expected 3 categories from database, got output:\n%s", out.String())
	}

	if err := p.Show(ctx, &out, "barvy"); !errors.Is(err, dataset.ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestImportFiles(t *testing.T) {
	flags := testFlags(t)
	p, _ := newTestProcessor(t, flags)

	var out bytes.Buffer
	file := filepath.Join(flags.DataDir, "fraze.txt")
	if err := p.Import(context.Background(), &out, []string{file}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Imported fraze: 2 cards" {
		t.Errorf("Unexpected import output: %q", out.String())
	}

	flags.DataDir = ""
	if err := p.Import(context.Background(), &out, nil); err == nil {
		t.Error("Expected error without files and data directory")
	}
}

func TestShowDisplayOrder(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"cz", "  1. pes [пес] | собака [sobaka]"},
		{"ua", "  1. собака [sobaka] | pes [пес]"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			flags := testFlags(t)
			flags.Lang = tt.lang
			p, _ := newTestProcessor(t, flags)

			var out bytes.Buffer
			if err := p.Show(context.Background(), &out, "zvirata"); err != nil {
				t.Fatalf("Show failed: %v", err)
			}

			lines := strings.Split(out.String(), "\n")
			if lines[0] != "zvirata (2 cards)" {
				t.Errorf("Header = %q", lines[0])
			}
			if lines[1] != tt.want {
				t.Errorf("First card = %q, want %q", lines[1], tt.want)
			}
			if !strings.Contains(lines[2], "translate_tts?tl=") {
				t.Errorf("Locator line = %q", lines[2])
			}
		})
	}
}

func TestExport(t *testing.T) {
	tests := []struct {
		name        string
		lang        string
		field       string
		fieldCustom string
		record      string
		want        string
	}{
		{"defaults", "cz", "comma", "", "newline", "pes, <strong>собака</strong>\nkočka, кішка\n"},
		{"ukrainian drill language keeps czech first", "ua", "comma", "", "newline", "pes, <strong>собака</strong>\nkočka, кішка\n"},
		{"semicolon records", "cz", "tab", "", "semicolon", "pes     <strong>собака</strong>;kočka     кішка;"},
		{"custom field", "ua", "custom", "->", "newline", "pes-> <strong>собака</strong>\nkočka-> кішка\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := testFlags(t)
			flags.Lang = tt.lang
			flags.Field = tt.field
			flags.FieldCustom = tt.fieldCustom
			flags.Record = tt.record
			p, _ := newTestProcessor(t, flags)

			var out bytes.Buffer
			if err := p.Export(context.Background(), &out, "zvirata"); err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			testutil.AssertFileContent(t, filepath.Join(flags.ExportDir, "zvirata.txt"), []byte(tt.want))
			if !strings.Contains(out.String(), "zvirata.txt") {
				t.Errorf("Output does not name the file: %s", out.String())
			}
		})
	}
}

func TestExportUnknownPreset(t *testing.T) {
	flags := testFlags(t)
	flags.Record = "tab"
	p, _ := newTestProcessor(t, flags)

	err := p.Export(context.Background(), &bytes.Buffer{}, "zvirata")
	if !errors.Is(err, export.ErrUnknownPreset) {
		t.Errorf("Expected ErrUnknownPreset, got %v", err)
	}
	testutil.AssertFileNotExists(t, filepath.Join(flags.ExportDir, "zvirata.txt"))
}

func TestArchive(t *testing.T) {
	flags := testFlags(t)
	p, _ := newTestProcessor(t, flags)
	ctx := context.Background()

	var out bytes.Buffer
	if err := p.Archive(ctx, &out); err == nil {
		t.Error("Expected error when nothing was exported")
	}

	if err := p.Export(ctx, &out, "ovoce"); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out.Reset()
	if err := p.Archive(ctx, &out); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !strings.Contains(out.String(), filepath.Join("archive", "exports-")) {
		t.Errorf("Unexpected archive output: %s", out.String())
	}
	testutil.AssertFileNotExists(t, flags.ExportDir)
}

func TestEnrich(t *testing.T) {
	flags := testFlags(t)
	mock := &testutil.MockTranscriber{Transcriptions: map[string]string{
		"hruška": "грушка",
		"груша":  "hruša",
	}}
	p, _ := newTestProcessor(t, flags, WithTranscriber(mock))
	ctx := context.Background()

	var out bytes.Buffer
	if err := p.Import(ctx, &out, nil); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	out.Reset()
	if err := p.Enrich(ctx, &out, "ovoce"); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if !strings.Contains(out.String(), "Updated 1 of 2 cards") {
		t.Errorf("Unexpected enrich output:\n%s", out.String())
	}

	db, err := p.database()
	if err != nil {
		t.Fatalf("database failed: %v", err)
	}
	got, err := db.Category(ctx, "ovoce")
	if err != nil {
		t.Fatalf("Category failed: %v", err)
	}
	if got.Cards[1].PrimaryTranscription != "грушка" || got.Cards[1].SecondaryTranscription != "hruša" {
		t.Errorf("Transcriptions not persisted: %+v", got.Cards[1])
	}
	if got.Cards[0].PrimaryTranscription != "яблко" {
		t.Errorf("Existing transcription overwritten: %+v", got.Cards[0])
	}
}

func TestEnrichKeepsPartialResults(t *testing.T) {
	flags := testFlags(t)
	mock := &testutil.MockTranscriber{Errors: map[string]error{"груша": errors.New("quota")}}
	p, _ := newTestProcessor(t, flags, WithTranscriber(mock))
	ctx := context.Background()

	if err := p.Import(ctx, &bytes.Buffer{}, nil); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if err := p.Enrich(ctx, &bytes.Buffer{}, "ovoce"); err == nil {
		t.Error("Expected error for failed transcription")
	}

	db, _ := p.database()
	got, err := db.Category(ctx, "ovoce")
	if err != nil {
		t.Fatalf("Category failed: %v", err)
	}
	if got.Cards[1].PrimaryTranscription != "[hruška]" {
		t.Errorf("Successful transcription not kept: %+v", got.Cards[1])
	}
}

func TestUnknownProvider(t *testing.T) {
	flags := testFlags(t)
	flags.Provider = "claude"
	p, _ := newTestProcessor(t, flags)

	if _, err := p.newTranscriber(); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestSay(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"completes", nil, false},
		{"fails", errors.New("device busy"), true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				done <- p.Say(context.Background(), &bytes.Buffer{}, "ua", "<strong>добрий</strong> день")
			}()

			testutil.WaitFor(t, "clip to start", func() bool { return player.Playing() == 1 })
			h := player.Handles()[i]
			h.Complete(tt.err)

			err := <-done
			if (err != nil) != tt.wantErr {
				t.Errorf("Say() error = %v, wantErr %v", err, tt.wantErr)
			}
			if h.Locator != tts.Resolve("uk", "добрий день") {
				t.Errorf("Locator = %s", h.Locator)
			}
		})
	}
}

func TestSayIgnoresOtherSessions(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))
	ctx := context.Background()

	c, err := p.controller()
	if err != nil {
		t.Fatalf("controller failed: %v", err)
	}
	if _, err := c.Play(ctx, tts.Resolve("cs", "pes"), "drill"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.Say(ctx, &bytes.Buffer{}, "cz", "kočka")
	}()

	// Say superseded the earlier clip, whose stop event must not end it.
	testutil.WaitFor(t, "say clip to start", func() bool { return len(player.Handles()) == 2 && player.Playing() == 1 })
	select {
	case err := <-done:
		t.Fatalf("Say returned before its clip finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	player.Handles()[1].Complete(nil)
	if err := <-done; err != nil {
		t.Errorf("Say failed: %v", err)
	}
}

func TestSayRejectsLanguage(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))

	if err := p.Say(context.Background(), &bytes.Buffer{}, "en", "hello"); err == nil {
		t.Error("Expected error for unsupported language")
	}
	if len(player.Calls()) != 0 {
		t.Error("Player used for rejected language")
	}
}

func TestDrill(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))

	input := "1\n2b\nabc\n9\n\ns\nq\n1\n"
	var out bytes.Buffer
	if err := p.Drill(context.Background(), strings.NewReader(input), &out, "zvirata"); err != nil {
		t.Fatalf("Drill failed: %v", err)
	}

	pes := tts.Resolve("cs", "pes")
	kiska := tts.Resolve("uk", "кішка")
	want := []string{
		"open " + string(pes), "start " + string(pes),
		"stop " + string(pes),
		"open " + string(kiska), "start " + string(kiska),
		"stop " + string(kiska),
	}
	if got := player.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("Player calls:\n%q\nwant:\n%q", got, want)
	}
	if player.MaxPlaying() != 1 {
		t.Errorf("MaxPlaying = %d, want 1", player.MaxPlaying())
	}

	for _, msg := range []string{`unknown command "abc"`, "no card 9 (1-2)", "кішка [kiška]"} {
		if !strings.Contains(out.String(), msg) {
			t.Errorf("Output missing %q:\n%s", msg, out.String())
		}
	}
}

func TestDrillEmptyInputStopsPlayback(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))

	if err := p.Drill(context.Background(), strings.NewReader("2"), &bytes.Buffer{}, "fraze"); err != nil {
		t.Fatalf("Drill failed: %v", err)
	}
	if player.Playing() != 0 {
		t.Error("Clip still playing after drill ended")
	}
}

func TestDrillCancelled(t *testing.T) {
	p, player := newTestProcessor(t, testFlags(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Input that never ends, like a terminal nobody types into.
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() {
		done <- p.Drill(ctx, pr, &bytes.Buffer{}, "zvirata")
	}()

	go pw.Write([]byte("1\n"))
	testutil.WaitFor(t, "clip to start", func() bool { return player.Playing() == 1 })
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Drill() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Drill did not return after cancel")
	}
	if player.Playing() != 0 {
		t.Error("Clip still playing after cancel")
	}
	if n := len(player.Handles()); n != 1 {
		t.Errorf("Opened %d clips, want 1", n)
	}
}

func TestParseDrillCommand(t *testing.T) {
	tests := []struct {
		cmd     string
		index   int
		back    bool
		wantErr bool
	}{
		{"1", 0, false, false},
		{"3b", 2, true, false},
		{"0", 0, false, true},
		{"4", 0, false, true},
		{"b", 0, false, true},
		{"1x", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			index, back, err := parseDrillCommand(tt.cmd, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDrillCommand(%q) error = %v, wantErr %v", tt.cmd, err, tt.wantErr)
			}
			if err == nil && (index != tt.index || back != tt.back) {
				t.Errorf("parseDrillCommand(%q) = %d, %v", tt.cmd, index, back)
			}
		})
	}
}
