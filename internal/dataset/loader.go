package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/slovnyk/internal/models"
)

// ErrUnknownCategory is returned when a category name is not in the dataset.
var ErrUnknownCategory = errors.New("unknown category")

// entry is a card as it is stored in JSON and YAML dataset files.
type entry struct {
	CzTranslation   string `json:"cz_translation" yaml:"cz_translation"`
	UaTranslation   string `json:"ua_translation" yaml:"ua_translation"`
	CzTranscription string `json:"cz_transcription" yaml:"cz_transcription"`
	UaTranscription string `json:"ua_transcription" yaml:"ua_transcription"`
	Image           string `json:"image" yaml:"image"`
}

func (e entry) card() models.Card {
	return models.Card{
		TranslationRecord: models.TranslationRecord{
			PrimaryText:            e.CzTranslation,
			PrimaryTranscription:   e.CzTranscription,
			SecondaryText:          e.UaTranslation,
			SecondaryTranscription: e.UaTranscription,
		},
		Image: e.Image,
	}
}

// Supported reports whether the file extension is a dataset format.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".txt":
		return true
	}
	return false
}

// LoadDir loads every supported file in dir as a category. Categories are
// sorted by name; other files and subdirectories are skipped.
func LoadDir(dir string) ([]models.Category, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var categories []models.Category
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}

		category, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

// LoadFile loads a single dataset file. The category is named after the
// file without its extension.
func LoadFile(path string) (models.Category, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	category := models.Category{Name: name}

	content, err := os.ReadFile(path)
	if err != nil {
		return category, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var entries []entry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(content, &entries); err != nil {
			return category, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &entries); err != nil {
			return category, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".txt":
		entries = parsePairs(string(content))
	default:
		return category, fmt.Errorf("unsupported dataset format: %s", ext)
	}

	for _, e := range entries {
		category.Cards = append(category.Cards, e.card())
	}

	return category, nil
}

// parsePairs reads "czech = ukrainian" lines. Lines missing either side
// are ignored.
func parsePairs(content string) []entry {
	var entries []entry

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cz, ua, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		cz = strings.TrimSpace(cz)
		ua = strings.TrimSpace(ua)
		if cz == "" || ua == "" {
			continue
		}

		entries = append(entries, entry{CzTranslation: cz, UaTranslation: ua})
	}

	return entries
}

// Find returns the category with the given name.
func Find(categories []models.Category, name string) (models.Category, error) {
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
}
