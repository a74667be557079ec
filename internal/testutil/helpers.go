package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateTestDataset writes a dataset directory with one category per
// supported file format and returns its path.
//
//	zvirata.json  - 2 cards, with transcriptions and markup
//	ovoce.yaml    - 2 cards
//	fraze.txt     - 2 cards in "czech = ukrainian" form
func CreateTestDataset(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "data")

	CreateTestFile(t, filepath.Join(dir, "zvirata.json"), []byte(`[
  {
    "cz_translation": "pes",
    "ua_translation": "<strong>собака</strong>",
    "cz_transcription": "пес",
    "ua_transcription": "sobaka",
    "image": "dog"
  },
  {
    "cz_translation": "kočka",
    "ua_translation": "кішка",
    "cz_transcription": "кочка",
    "ua_transcription": "kiška",
    "image": "cat"
  }
]`))

	CreateTestFile(t, filepath.Join(dir, "ovoce.yaml"), []byte(`- cz_translation: jablko
  ua_translation: яблуко
  cz_transcription: яблко
  ua_transcription: jabluko
  image: apple
- cz_translation: hruška
  ua_translation: груша
  image: pear
`))

	CreateTestFile(t, filepath.Join(dir, "fraze.txt"), []byte("dobrý den = добрий день\n\nděkuji = дякую\n"))

	return dir
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContent checks if a file has expected content
func AssertFileContent(t *testing.T, path string, expected []byte) {
	t.Helper()

	actual, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("File content mismatch in %s\nExpected: %q\nActual: %q", path, expected, actual)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// WaitFor polls cond until it holds or two seconds passed
func WaitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
