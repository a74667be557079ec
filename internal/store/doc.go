// Package store keeps imported flashcard categories in a SQLite database
// so that generated transcriptions survive between runs.
package store
