package export

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"codeberg.org/snonux/slovnyk/internal"
	"codeberg.org/snonux/slovnyk/internal/models"
)

// ContentType of every export payload
const ContentType = "text/plain; charset=utf-8"

// Download is what the user gets to save.
type Download struct {
	Locator           string
	SuggestedFileName string
	ContentType       string
	Size              int
}

// Packager turns a payload into a retrievable download. It owns the
// locator's lifetime; callers do not reuse locators.
type Packager interface {
	Package(payload []byte, category string) (Download, error)
}

// SuggestedFileName returns the file name offered for a category
func SuggestedFileName(category string) string {
	return category + ".txt"
}

// FilePackager writes payloads into a directory and hands out file URLs.
type FilePackager struct {
	Dir string
}

// NewFilePackager creates a packager writing into dir
func NewFilePackager(dir string) *FilePackager {
	return &FilePackager{Dir: dir}
}

// Package writes the payload to <dir>/<category>.txt. The on-disk name is
// sanitized; the suggested name is not.
func (p *FilePackager) Package(payload []byte, category string) (Download, error) {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return Download{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(p.Dir, internal.SanitizeFilename(category)+".txt")
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return Download{}, fmt.Errorf("failed to write export file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Download{}, fmt.Errorf("failed to resolve export path: %w", err)
	}

	return Download{
		Locator:           (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		SuggestedFileName: SuggestedFileName(category),
		ContentType:       ContentType,
		Size:              len(payload),
	}, nil
}

// Export serializes a category's records with the configured separators
// and hands the payload to the packager.
func Export(records []models.TranslationRecord, category string, cfg *Config, p Packager) (Download, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	payload := Serialize(records, cfg.ResolveFieldSeparator(), cfg.ResolveRecordSeparator())
	d, err := p.Package(payload, category)
	if err != nil {
		return Download{}, fmt.Errorf("failed to package %s: %w", category, err)
	}
	return d, nil
}
