package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/slovnyk/internal/dataset"
	"codeberg.org/snonux/slovnyk/internal/models"
)

const (
	tableCategories = "categories"
	tableCards      = "cards"
)

// insertBatchSize keeps a multi-row insert below SQLite's bound variable
// limit.
const insertBatchSize = 500

var cardColumns = []string{
	"category", "position",
	"cz_text", "cz_transcription",
	"ua_text", "ua_transcription",
	"image",
}

// Store is a SQLite backed category store.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path and migrates
// its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			name text PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			category text NOT NULL REFERENCES categories(name) ON DELETE CASCADE,
			position integer NOT NULL,
			cz_text text NOT NULL,
			cz_transcription text NOT NULL DEFAULT '',
			ua_text text NOT NULL,
			ua_transcription text NOT NULL DEFAULT '',
			image text NOT NULL DEFAULT '',
			PRIMARY KEY (category, position)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// Import stores the category, replacing any category of the same name.
// Card order is preserved.
func (s *Store) Import(ctx context.Context, category models.Category) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	del, args, err := sq.Delete(tableCategories).Where(sq.Eq{"name": category.Name}).ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, del, args...); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", category.Name, err)
	}

	ins, args, err := sq.Insert(tableCategories).Columns("name").Values(category.Name).ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, ins, args...); err != nil {
		return fmt.Errorf("failed to insert category %s: %w", category.Name, err)
	}

	for start := 0; start < len(category.Cards); start += insertBatchSize {
		end := min(start+insertBatchSize, len(category.Cards))

		insert := sq.Insert(tableCards).Columns(cardColumns...)
		for i, card := range category.Cards[start:end] {
			insert = insert.Values(
				category.Name, start+i,
				card.PrimaryText, card.PrimaryTranscription,
				card.SecondaryText, card.SecondaryTranscription,
				card.Image,
			)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert cards for %s: %w", category.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// Categories returns all stored categories, sorted by name, with their
// cards in import order.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		cards, err := s.cards(ctx, name)
		if err != nil {
			return nil, err
		}
		categories = append(categories, models.Category{Name: name, Cards: cards})
	}

	return categories, nil
}

// Category returns a single category. Unknown names yield
// dataset.ErrUnknownCategory.
func (s *Store) Category(ctx context.Context, name string) (models.Category, error) {
	query, args, err := sq.Select("count(*)").From(tableCategories).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return models.Category{}, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return models.Category{}, fmt.Errorf("failed to look up category %s: %w", name, err)
	}
	if n == 0 {
		return models.Category{}, fmt.Errorf("%w: %s", dataset.ErrUnknownCategory, name)
	}

	cards, err := s.cards(ctx, name)
	if err != nil {
		return models.Category{}, err
	}

	return models.Category{Name: name, Cards: cards}, nil
}

// SetTranscriptions updates the transcriptions of the card at position
// (zero based) in category.
func (s *Store) SetTranscriptions(ctx context.Context, category string, position int, primary, secondary string) error {
	query, args, err := sq.Update(tableCards).
		Set("cz_transcription", primary).
		Set("ua_transcription", secondary).
		Where(sq.Eq{"category": category, "position": position}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transcriptions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s has no card at position %d", dataset.ErrUnknownCategory, category, position)
	}

	return nil
}

func (s *Store) categoryNames(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("name").From(tableCategories).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *Store) cards(ctx context.Context, category string) ([]models.Card, error) {
	query, args, err := sq.Select(cardColumns[2:]...).
		From(tableCards).
		Where(sq.Eq{"category": category}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards for %s: %w", category, err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(
			&c.PrimaryText, &c.PrimaryTranscription,
			&c.SecondaryText, &c.SecondaryTranscription,
			&c.Image,
		); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}

	return cards, rows.Err()
}
