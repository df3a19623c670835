package pipeline

import (
	"fmt"
	"os"
)

// errorLog is the append-only side file recording per-question extraction
// failures. The run keeps going; the file tells the operator what to revisit.
type errorLog struct {
	path string
}

func newErrorLog(path string) *errorLog {
	return &errorLog{path: path}
}

// Append records one failed item as a (label, url, message) line.
func (l *errorLog) Append(label, url, message string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open error log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "(%q, %q, %q)\n", label, url, message); err != nil {
		return fmt.Errorf("append to error log %s: %w", l.path, err)
	}
	return nil
}
