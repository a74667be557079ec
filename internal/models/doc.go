// Package models holds the flashcard data shapes shared by the dataset
// loaders, the SQLite store, the export serializer and the CLI. Records
// are created at load time and treated as read-only afterwards.
package models
