// Package processor implements the slovnyk subcommands. It wires the
// dataset loaders, the SQLite store, the playback controller, the export
// pipeline and the transcription enricher together and serves as the
// main coordinator between all other components.
package processor
