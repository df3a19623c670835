package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Requirement is the per-exam record read at process start and mutated as
// phases complete. The JSON keys and their loose typing (numbers and booleans
// sometimes serialized as strings) come from files written by earlier runs;
// the loader normalizes both forms and internally everything is typed.
type Requirement struct {
	Exam           string
	ExamMainURL    string
	MaxQuestion    int
	DiscoveryDone  bool
	ExtractionDone bool
}

// requirementDoc is the wire form of Requirement.
type requirementDoc struct {
	Exam           string   `json:"exam"`
	ExamMainURL    string   `json:"exam_main_url"`
	MaxQuestion    flexInt  `json:"max_question"`
	DiscoveryDone  flexBool `json:"extract_csv_finished"`
	ExtractionDone flexBool `json:"scrap_json_finished"`
}

// RequirementFile couples a Requirement with its backing file. Every mutation
// persists immediately; the run must be resumable after a crash at any point.
type RequirementFile struct {
	path string
	Requirement
}

// LoadRequirement reads the requirement record at path. A missing file is
// fatal: without it there is nothing to scrape.
func LoadRequirement(path string) (*RequirementFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirement file %s: %w", path, err)
	}
	var doc requirementDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse requirement file %s: %w", path, err)
	}
	r := &RequirementFile{
		path: path,
		Requirement: Requirement{
			Exam:           doc.Exam,
			ExamMainURL:    doc.ExamMainURL,
			MaxQuestion:    int(doc.MaxQuestion),
			DiscoveryDone:  bool(doc.DiscoveryDone),
			ExtractionDone: bool(doc.ExtractionDone),
		},
	}
	if r.Exam == "" {
		return nil, fmt.Errorf("requirement file %s: exam is required", path)
	}
	if r.MaxQuestion == 0 && r.ExamMainURL == "" {
		return nil, fmt.Errorf("requirement file %s: exam_main_url is required when max_question is absent", path)
	}
	return r, nil
}

// SetMaxQuestion caches the question count fetched from the index page.
func (r *RequirementFile) SetMaxQuestion(n int) error {
	r.MaxQuestion = n
	return r.persist()
}

// SetDiscoveryDone marks the URL discovery phase complete.
func (r *RequirementFile) SetDiscoveryDone() error {
	r.DiscoveryDone = true
	return r.persist()
}

// SetExtractionDone marks the content extraction phase complete.
func (r *RequirementFile) SetExtractionDone() error {
	r.ExtractionDone = true
	return r.persist()
}

func (r *RequirementFile) persist() error {
	doc := requirementDoc{
		Exam:           r.Exam,
		ExamMainURL:    r.ExamMainURL,
		MaxQuestion:    flexInt(r.MaxQuestion),
		DiscoveryDone:  flexBool(r.DiscoveryDone),
		ExtractionDone: flexBool(r.ExtractionDone),
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal requirement: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".requirement-*.json")
	if err != nil {
		return fmt.Errorf("create requirement temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write requirement: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close requirement temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace requirement %s: %w", r.path, err)
	}
	return nil
}

// flexBool accepts native booleans and the legacy "True"/"False" strings,
// always serializing back as a native boolean.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var native bool
	if err := json.Unmarshal(data, &native); err == nil {
		*b = flexBool(native)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("boolean field: unsupported value %s", data)
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true":
		*b = true
	case "false", "":
		*b = false
	default:
		return fmt.Errorf("boolean field: unsupported value %q", text)
	}
	return nil
}

func (b flexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// flexInt accepts numbers, numeric strings, and null, serializing back as a
// native number.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = 0
		return nil
	}
	var native int
	if err := json.Unmarshal(data, &native); err == nil {
		*n = flexInt(native)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("integer field: unsupported value %s", data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		*n = 0
		return nil
	}
	parsed, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("integer field: %w", err)
	}
	*n = flexInt(parsed)
	return nil
}

func (n flexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(n))
}
