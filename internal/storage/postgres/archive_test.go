package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/dailydigest/digestd/internal/digest"
)

func TestArchiveAppendInsertsNote(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive, err := NewArchive(mock, "reply_notes")
	require.NoError(t, err)

	note := digest.ReplyNote{
		ID:         "abc123def456",
		URL:        "https://example.com/a",
		Title:      "A",
		Note:       "my key points",
		ReceivedAt: time.Unix(1700000000, 0).UTC(),
	}

	mock.ExpectExec("INSERT INTO reply_notes").
		WithArgs(note.ID, note.URL, note.Title, note.Note, note.ReceivedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, archive.Append(context.Background(), note))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveAppendRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive, err := NewArchive(mock, "reply_notes")
	require.NoError(t, err)
	require.Error(t, archive.Append(context.Background(), digest.ReplyNote{}))
}

func TestArchiveHas(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	archive, err := NewArchive(mock, "reply_notes")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("abc123def456").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := archive.Has(context.Background(), "abc123def456")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
