package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dailydigest/digestd/internal/digest"
)

func TestLoadMissingFileReturnsEmptyRecord(t *testing.T) {
	t.Parallel()

	store, err := NewTrackerStore(filepath.Join(t.TempDir(), "sent_links.json"))
	require.NoError(t, err)

	rec, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, rec.SentURLs)
	require.Empty(t, rec.History)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sent_links.json")
	store, err := NewTrackerStore(path)
	require.NoError(t, err)

	rec := digest.TrackerRecord{
		SentURLs: []string{"https://a.test/1"},
		History: []digest.HistoryEntry{{
			URL:   "https://a.test/1",
			Title: "First",
			Date:  time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC),
		}},
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestSaveWritesNamedFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sent_links.json")
	store, err := NewTrackerStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), digest.TrackerRecord{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "sent_links")
	require.Contains(t, raw, "history")
}

func TestSaveRewritesWholeFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sent_links.json")
	store, err := NewTrackerStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, digest.TrackerRecord{SentURLs: []string{"https://a.test/1", "https://a.test/2"}}))
	require.NoError(t, store.Save(ctx, digest.TrackerRecord{SentURLs: []string{"https://a.test/3"}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.test/3"}, got.SentURLs)
}

func TestLoadCorruptFileFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sent_links.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewTrackerStore(path)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	require.Error(t, err)
}

func TestNewTrackerStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewTrackerStore("")
	require.Error(t, err)
}
