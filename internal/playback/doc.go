// Package playback owns pronunciation playback. A Controller keeps at
// most one clip playing at a time: starting a new clip stops the one in
// progress first, and completion notices from superseded clips are
// discarded by comparing session tokens.
//
// Audio output is pluggable through the Opener interface. Two backends
// are provided: ExecOpener hands the locator to an external command-line
// player and BeepOpener fetches and decodes the clip in-process.
package playback
