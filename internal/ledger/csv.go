package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// csvHeader is the canonical column set carried over from earlier runs of
// this tool, so existing ledgers keep working.
var csvHeader = []string{"Pregunta", "URL", "Scraping"}

// CSVStore keeps the ledger in a single CSV file, rewritten wholesale on
// every mutation via a temp file and rename.
type CSVStore struct {
	path string
	rows []Row
}

// OpenCSV loads the ledger at path, initializing an empty one (header only)
// when the file does not exist.
func OpenCSV(path string) (*CSVStore, error) {
	s := &CSVStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, path, err)
	}
	if len(records) == 0 {
		return s, nil
	}
	if !equalHeader(records[0], csvHeader) {
		return nil, fmt.Errorf("%w: unexpected columns %v in %s", ErrCorrupt, records[0], path)
	}

	for _, record := range records[1:] {
		row, err := parseCSVRow(record)
		if err != nil {
			return nil, err
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}

// ResumePoint returns the highest ordinal present in the ledger.
func (s *CSVStore) ResumePoint(context.Context) (int, error) {
	highest := 0
	for _, row := range s.rows {
		if row.Ordinal > highest {
			highest = row.Ordinal
		}
	}
	return highest, nil
}

// PendingExtraction returns unextracted rows sorted by ordinal. Discovery may
// insert out of order during the missing-item sweep, so insertion order is
// not trusted.
func (s *CSVStore) PendingExtraction(context.Context) ([]Row, error) {
	var pending []Row
	for _, row := range s.rows {
		if !row.Extracted {
			pending = append(pending, row)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Ordinal < pending[j].Ordinal })
	return pending, nil
}

// Ordinals reports the set of ordinals present.
func (s *CSVStore) Ordinals(context.Context) (map[int]struct{}, error) {
	present := make(map[int]struct{}, len(s.rows))
	for _, row := range s.rows {
		present[row.Ordinal] = struct{}{}
	}
	return present, nil
}

// Append adds one unextracted row and rewrites the file.
func (s *CSVStore) Append(_ context.Context, ordinal int, url string) error {
	if ordinal <= 0 {
		return fmt.Errorf("ordinal %d must be positive", ordinal)
	}
	for _, row := range s.rows {
		if row.Ordinal == ordinal {
			return fmt.Errorf("%w: %d", ErrDuplicateOrdinal, ordinal)
		}
	}
	s.rows = append(s.rows, Row{Ordinal: ordinal, Label: Label(ordinal), URL: url})
	return s.persist()
}

// MarkExtracted flips the flag for ordinal and rewrites the file.
func (s *CSVStore) MarkExtracted(_ context.Context, ordinal int) error {
	for i := range s.rows {
		if s.rows[i].Ordinal != ordinal {
			continue
		}
		if s.rows[i].URL == "" {
			return fmt.Errorf("ordinal %d has no resolved URL", ordinal)
		}
		s.rows[i].Extracted = true
		return s.persist()
	}
	return fmt.Errorf("ordinal %d not present in ledger", ordinal)
}

// Close is a no-op; every mutation is already persisted.
func (s *CSVStore) Close() error { return nil }

// persist rewrites the whole file. The temp-file + rename keeps a crash from
// ever leaving a half-written ledger behind.
func (s *CSVStore) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create ledger dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, row := range s.rows {
		record := []string{row.Label, row.URL, formatBool(row.Extracted)}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger row %d: %w", row.Ordinal, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", s.path, err)
	}
	return nil
}

func parseCSVRow(record []string) (Row, error) {
	if len(record) != len(csvHeader) {
		return Row{}, fmt.Errorf("%w: row %v has %d columns", ErrCorrupt, record, len(record))
	}
	ordinal, err := ParseLabel(record[0])
	if err != nil {
		return Row{}, err
	}
	// Older ledgers serialized the flag as Python's "True"/"False";
	// ParseBool accepts both those and the canonical form.
	extracted, err := strconv.ParseBool(record[2])
	if err != nil {
		return Row{}, fmt.Errorf("%w: row %v flag: %v", ErrCorrupt, record, err)
	}
	return Row{Ordinal: ordinal, Label: record[0], URL: record[1], Extracted: extracted}, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
