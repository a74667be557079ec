// Package phonetic fills in missing card transcriptions with help of a
// language model. The Czech side is transcribed into Ukrainian Cyrillic
// and the Ukrainian side into Czech Latin script, so each reader can
// pronounce the other language.
//
// OpenAI and Gemini transcribers are provided. BreakerTranscriber wraps
// either one in a circuit breaker so a failing API stops being hammered
// halfway through a category.
package phonetic
