package tracker

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
	"github.com/dailydigest/digestd/internal/storage/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

type failingStore struct {
	rec     digest.TrackerRecord
	saveErr error
}

func (s *failingStore) Load(context.Context) (digest.TrackerRecord, error) {
	return s.rec, nil
}

func (s *failingStore) Save(_ context.Context, rec digest.TrackerRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rec = rec
	return nil
}

func newTestTracker(t *testing.T, store digest.TrackerStore) *Tracker {
	t.Helper()
	tr, err := New(
		context.Background(),
		store,
		&fakeClock{now: time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)},
		zap.NewNop(),
		WithRand(rand.New(rand.NewSource(42))),
	)
	require.NoError(t, err)
	return tr
}

func TestUnsentNeverContainsSent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTestTracker(t, memory.NewTrackerStore())
	links := []string{"https://a.test/1", "https://a.test/2", "https://a.test/3"}

	require.Equal(t, links, tr.Unsent(links))

	require.NoError(t, tr.RecordOutcome(ctx, links[0], "First", true))
	require.NoError(t, tr.RecordOutcome(ctx, links[1], "Second", true))

	got := tr.Unsent(links)
	require.Equal(t, []string{links[2]}, got)
}

func TestUnsentCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, memory.NewTrackerStore())
	links := []string{"https://a.test/1", "https://a.test/1", "https://a.test/2"}
	require.Equal(t, []string{"https://a.test/1", "https://a.test/2"}, tr.Unsent(links))
}

func TestSelectResetsOnExhaustion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTestTracker(t, memory.NewTrackerStore())
	links := []string{"https://a.test/A", "https://a.test/B", "https://a.test/C"}

	require.NoError(t, tr.RecordOutcome(ctx, links[0], "A", true))
	require.NoError(t, tr.RecordOutcome(ctx, links[1], "B", true))
	require.Equal(t, []string{links[2]}, tr.Unsent(links))

	// Failure also consumes the slot.
	require.NoError(t, tr.RecordOutcome(ctx, links[2], "extraction failed: timeout", false))
	require.Empty(t, tr.Unsent(links))

	// Exhausted: next select resets and draws from the full list again.
	picked, err := tr.Select(ctx, links)
	require.NoError(t, err)
	require.Contains(t, links, picked)

	stats := tr.Stats()
	require.Zero(t, stats.TotalSent)
	require.Nil(t, stats.LastSent)
	require.Empty(t, tr.History(0))
}

func TestSelectReturnsOnlyUnsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTestTracker(t, memory.NewTrackerStore())
	links := []string{"https://a.test/A", "https://a.test/B", "https://a.test/C"}

	require.NoError(t, tr.RecordOutcome(ctx, links[0], "A", true))
	require.NoError(t, tr.RecordOutcome(ctx, links[2], "C", true))

	for range 20 {
		picked, err := tr.Select(ctx, links)
		require.NoError(t, err)
		require.Equal(t, links[1], picked)
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, memory.NewTrackerStore())
	_, err := tr.Select(context.Background(), nil)
	require.Error(t, err)
}

func TestRecordOutcomeIdempotentMembership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTestTracker(t, memory.NewTrackerStore())
	url := "https://a.test/dup"

	require.NoError(t, tr.RecordOutcome(ctx, url, "Once", true))
	require.NoError(t, tr.RecordOutcome(ctx, url, "Twice", true))

	require.Equal(t, 1, tr.Stats().TotalSent)
	require.Len(t, tr.History(0), 2)
}

func TestRecordOutcomePersistsEveryMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewTrackerStore()
	tr := newTestTracker(t, store)

	require.NoError(t, tr.RecordOutcome(ctx, "https://a.test/1", "One", true))
	require.NoError(t, tr.RecordOutcome(ctx, "https://a.test/2", "reason", false))
	require.NoError(t, tr.Reset(ctx))
	require.Equal(t, 3, store.Saves())
}

func TestRecordOutcomeSurfacesSaveError(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	tr := newTestTracker(t, &failingStore{saveErr: saveErr})
	err := tr.RecordOutcome(context.Background(), "https://a.test/1", "One", true)
	require.ErrorIs(t, err, saveErr)
}

func TestResetClearsBothAtomically(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewTrackerStore()
	tr := newTestTracker(t, store)

	require.NoError(t, tr.RecordOutcome(ctx, "https://a.test/1", "One", true))
	require.NoError(t, tr.Reset(ctx))

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, rec.SentURLs)
	require.Empty(t, rec.History)
	require.Equal(t, []string{"https://a.test/1"}, tr.Unsent([]string{"https://a.test/1"}))
}

func TestLastDeliveredSkipsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTestTracker(t, memory.NewTrackerStore())

	_, ok := tr.LastDelivered()
	require.False(t, ok)

	require.NoError(t, tr.RecordOutcome(ctx, "https://a.test/good", "Good", true))
	require.NoError(t, tr.RecordOutcome(ctx, "https://a.test/bad", "extraction failed", false))

	entry, ok := tr.LastDelivered()
	require.True(t, ok)
	require.Equal(t, "https://a.test/good", entry.URL)
	require.Equal(t, "Good", entry.Title)
}

func TestNewLoadsPersistedState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewTrackerStore()
	first := newTestTracker(t, store)
	require.NoError(t, first.RecordOutcome(ctx, "https://a.test/1", "One", true))

	second := newTestTracker(t, store)
	require.Empty(t, second.Unsent([]string{"https://a.test/1"}))
	require.Equal(t, 1, second.Stats().TotalSent)
}
