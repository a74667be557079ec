// Package tts maps a language code and a piece of flashcard text to the
// locator of a remote speech-synthesis clip. It performs no I/O; whether
// the locator is reachable is only discovered at playback time.
package tts
