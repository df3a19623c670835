package records

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/examtopics"
)

func TestOpenCreatesEmptyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions_answer.json")
	store, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestAppendRewritesWholeDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions_answer.json")
	store, err := Open(path)
	require.NoError(t, err)

	first := examtopics.Record{Ordinal: 1, Question: "What is object storage?"}
	second := examtopics.Record{
		Ordinal:  2,
		Question: "Pick two regions.",
		Choices:  []examtopics.Choice{{Letter: "A", Text: "A. us-east1", Correct: true}},
	}
	require.NoError(t, store.Append(first))
	require.NoError(t, store.Append(second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []examtopics.Record
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Len(t, onDisk, 2)
	assert.Equal(t, first.Question, onDisk[0].Question)
	assert.Equal(t, second.Choices, onDisk[1].Choices)
}

func TestOpenExtendsExistingDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions_answer.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(examtopics.Record{Ordinal: 1, Question: "q1"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, reopened.Len())
	require.NoError(t, reopened.Append(examtopics.Record{Ordinal: 2, Question: "q2"}))

	recs := reopened.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Ordinal)
	assert.Equal(t, 2, recs[1].Ordinal)
}

func TestOpenRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions_answer.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
}
