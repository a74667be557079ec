// Package archive moves a finished exports directory out of the way so
// the next export session starts with an empty one.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNothingToArchive is returned when the exports directory is missing.
var ErrNothingToArchive = errors.New("exports directory does not exist")

const timestampFormat = "20060102-150405"

var now = time.Now

// ArchiveExports renames exportsDir to archive/exports-YYYYMMDD-HHMMSS
// next to it and returns the new path. A numeric suffix is appended when
// an archive for the same second exists already.
func ArchiveExports(exportsDir string) (string, error) {
	info, err := os.Stat(exportsDir)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNothingToArchive, exportsDir)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", exportsDir)
	}

	archiveDir := filepath.Join(filepath.Dir(exportsDir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := "exports-" + now().Format(timestampFormat)
	archivePath := filepath.Join(archiveDir, base)
	for i := 1; exists(archivePath); i++ {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%d", base, i))
	}

	if err := os.Rename(exportsDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive exports directory: %w", err)
	}

	return archivePath, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
