package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"codeberg.org/snonux/slovnyk/internal/models"
)

// Serialize renders records in input order as
// primary + fieldSep + " " + secondary + recordSep. The last record keeps
// its record separator and transcriptions are left out.
func Serialize(records []models.TranslationRecord, fieldSep, recordSep string) []byte {
	var buf bytes.Buffer
	// writes to a bytes.Buffer cannot fail
	_, _ = WriteTo(&buf, records, fieldSep, recordSep)
	return buf.Bytes()
}

// WriteTo streams the serialized records to w and returns the number of
// bytes written.
func WriteTo(w io.Writer, records []models.TranslationRecord, fieldSep, recordSep string) (int64, error) {
	bw := bufio.NewWriter(w)

	var written int64
	for _, r := range records {
		n, err := fmt.Fprintf(bw, "%s%s %s%s", r.PrimaryText, fieldSep, r.SecondaryText, recordSep)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush export: %w", err)
	}
	return written, nil
}
