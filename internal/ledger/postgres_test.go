package ledger

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestPostgresAppendInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "exam_progress")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO exam_progress").
		WithArgs(7, "Question #: 7", "https://www.examtopics.com/discussions/7").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Append(context.Background(), 7, "https://www.examtopics.com/discussions/7"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendRejectsDuplicate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "exam_progress")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO exam_progress").
		WithArgs(7, "Question #: 7", "https://x").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err = store.Append(context.Background(), 7, "https://x")
	require.ErrorIs(t, err, ErrDuplicateOrdinal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPendingExtraction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "exam_progress")
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"ordinal", "label", "url", "extracted"}).
		AddRow(1, "Question #: 1", "https://www.examtopics.com/discussions/1", false).
		AddRow(3, "Question #: 3", "https://www.examtopics.com/discussions/3", false)
	mock.ExpectQuery("SELECT ordinal, label, url, extracted FROM exam_progress").
		WillReturnRows(rows)

	pending, err := store.PendingExtraction(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, 1, pending[0].Ordinal)
	require.Equal(t, 3, pending[1].Ordinal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkExtracted(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "exam_progress")
	require.NoError(t, err)

	mock.ExpectExec("UPDATE exam_progress SET extracted").
		WithArgs(4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.MarkExtracted(context.Background(), 4))

	mock.ExpectExec("UPDATE exam_progress SET extracted").
		WithArgs(5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.Error(t, store.MarkExtracted(context.Background(), 5))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResumePoint(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "exam_progress")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(ordinal\), 0\) FROM exam_progress`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(41))

	point, err := store.ResumePoint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 41, point)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "bad table;")
	require.Error(t, err)
}
