// Package ledger persists per-question discovery and extraction progress.
//
// The ledger is the single source of truth for what has been done: the
// discovery phase appends one row per resolved question and the extraction
// phase flips the completion flag. Every mutation is persisted immediately so
// a crash loses at most the in-flight item.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCorrupt signals the backing file exists but cannot be parsed as a
// progress ledger. It is fatal and never auto-repaired.
var ErrCorrupt = errors.New("progress ledger is corrupt")

// ErrDuplicateOrdinal signals an append for an ordinal already in the ledger.
var ErrDuplicateOrdinal = errors.New("ordinal already present in ledger")

// Row is one ledger entry.
type Row struct {
	Ordinal   int
	Label     string
	URL       string
	Extracted bool
}

// Store is the progress ledger contract shared by the file and Postgres
// backends. Implementations persist every mutation before returning.
type Store interface {
	// ResumePoint returns the highest ordinal present, 0 when empty.
	// Discovery resumes at ResumePoint()+1.
	ResumePoint(ctx context.Context) (int, error)
	// PendingExtraction returns rows with Extracted=false in ascending
	// ordinal order regardless of insertion order.
	PendingExtraction(ctx context.Context) ([]Row, error)
	// Ordinals reports the set of ordinals present in the ledger.
	Ordinals(ctx context.Context) (map[int]struct{}, error)
	// Append adds one unextracted row and persists it.
	Append(ctx context.Context, ordinal int, url string) error
	// MarkExtracted flips the completion flag for ordinal and persists it.
	MarkExtracted(ctx context.Context, ordinal int) error
	Close() error
}

// Label renders the canonical row label for an ordinal.
func Label(ordinal int) string {
	return fmt.Sprintf("Question #: %d", ordinal)
}

// ParseLabel recovers an ordinal from a row label such as "Question #: 12".
func ParseLabel(label string) (int, error) {
	_, numText, found := strings.Cut(label, "#:")
	if !found {
		return 0, fmt.Errorf("label %q has no ordinal: %w", label, ErrCorrupt)
	}
	ordinal, err := strconv.Atoi(strings.TrimSpace(numText))
	if err != nil {
		return 0, fmt.Errorf("label %q ordinal: %w", label, ErrCorrupt)
	}
	return ordinal, nil
}
