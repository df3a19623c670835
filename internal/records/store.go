// Package records persists extracted question records as one JSON document.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/examtopics"
)

// Store is an append-only sequence of records backed by a single JSON file.
// Every append serializes the whole document and swaps it in atomically, so a
// crash never leaves a partially written output file.
type Store struct {
	path  string
	items []examtopics.Record
}

// Open loads the document at path; a missing or empty file yields an empty
// store and the document is created on first persist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read records %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return s, nil
}

// Append adds one record and rewrites the document.
func (s *Store) Append(rec examtopics.Record) error {
	s.items = append(s.items, rec)
	if err := s.persist(); err != nil {
		// Roll back the in-memory append so a retry is not a duplicate.
		s.items = s.items[:len(s.items)-1]
		return err
	}
	return nil
}

// Len reports the number of records in the document.
func (s *Store) Len() int { return len(s.items) }

// Records returns a copy of the stored records in append order.
func (s *Store) Records() []examtopics.Record {
	out := make([]examtopics.Record, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create records dir %s: %w", dir, err)
	}

	items := s.items
	if items == nil {
		items = []examtopics.Record{}
	}
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create records temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close records temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace records %s: %w", s.path, err)
	}
	return nil
}
