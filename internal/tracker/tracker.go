// Package tracker implements the selection and tracking core: it owns the
// persistent record of delivered candidates, decides which link to try
// next, and records outcomes durably per attempt.
package tracker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
)

// Tracker exclusively owns a TrackerRecord. It is not safe for concurrent
// use; the design assumes a single mutating process, coordinated by the
// external scheduler.
type Tracker struct {
	store  digest.TrackerStore
	clock  digest.Clock
	rng    *rand.Rand
	logger *zap.Logger

	rec  digest.TrackerRecord
	sent map[string]struct{}
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithRand replaces the selection randomness source, mainly for tests.
// Selection is not required to be reproducible in production.
func WithRand(r *rand.Rand) Option {
	return func(t *Tracker) { t.rng = r }
}

// New loads persisted state (or starts empty when none exists) and returns
// a ready Tracker.
func New(ctx context.Context, store digest.TrackerStore, clock digest.Clock, logger *zap.Logger, opts ...Option) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rec, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracker state: %w", err)
	}
	t := &Tracker{
		store:  store,
		clock:  clock,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
		rec:    rec,
		sent:   make(map[string]struct{}, len(rec.SentURLs)),
	}
	for _, u := range rec.SentURLs {
		t.sent[u] = struct{}{}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Unsent returns the candidates not yet marked sent, preserving input
// order. Duplicate input URLs are collapsed to their first occurrence so
// they cannot double-count toward exhaustion. No side effects.
func (t *Tracker) Unsent(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, u := range candidates {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if _, ok := t.sent[u]; ok {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Select picks one unsent candidate uniformly at random. When every
// candidate has been sent, the full set is exhausted: tracking state is
// reset and the whole list becomes available again. This cyclic reuse is
// deliberate, not an error.
func (t *Tracker) Select(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("select: empty candidate list")
	}
	pool := t.Unsent(candidates)
	if len(pool) == 0 {
		t.logger.Info("all candidates delivered, resetting tracker",
			zap.Int("total_sent", len(t.rec.SentURLs)))
		if err := t.Reset(ctx); err != nil {
			return "", err
		}
		pool = t.Unsent(candidates)
	}
	return pool[t.rng.Intn(len(pool))], nil
}

// RecordOutcome appends a history entry with the current timestamp and
// adds the URL to the sent set. Both success and failure consume the slot
// so a permanently broken link cannot block forward progress. Membership
// is idempotent; history is append-only. State is persisted before return.
func (t *Tracker) RecordOutcome(ctx context.Context, url, titleOrReason string, success bool) error {
	t.rec.History = append(t.rec.History, digest.HistoryEntry{
		URL:    url,
		Title:  titleOrReason,
		Failed: !success,
		Date:   t.clock.Now(),
	})
	if _, ok := t.sent[url]; !ok {
		t.sent[url] = struct{}{}
		t.rec.SentURLs = append(t.rec.SentURLs, url)
	}
	if err := t.store.Save(ctx, t.rec.Clone()); err != nil {
		return fmt.Errorf("persist outcome for %s: %w", url, err)
	}
	return nil
}

// Reset clears the sent set and history together and persists the empty
// record. The two are never allowed to diverge.
func (t *Tracker) Reset(ctx context.Context) error {
	t.rec = digest.TrackerRecord{}
	t.sent = make(map[string]struct{})
	if err := t.store.Save(ctx, digest.TrackerRecord{}); err != nil {
		return fmt.Errorf("persist reset: %w", err)
	}
	return nil
}

// LastDelivered returns the most recent successful history entry, used by
// the noon job to find today's article.
func (t *Tracker) LastDelivered() (digest.HistoryEntry, bool) {
	for i := len(t.rec.History) - 1; i >= 0; i-- {
		if !t.rec.History[i].Failed {
			return t.rec.History[i], true
		}
	}
	return digest.HistoryEntry{}, false
}

// History returns up to limit most recent entries, oldest first.
func (t *Tracker) History(limit int) []digest.HistoryEntry {
	h := t.rec.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]digest.HistoryEntry(nil), h...)
}

// Stats reports totals for operator output.
func (t *Tracker) Stats() digest.TrackerStats {
	s := digest.TrackerStats{TotalSent: len(t.rec.SentURLs)}
	if n := len(t.rec.History); n > 0 {
		last := t.rec.History[n-1]
		s.LastSent = &last
	}
	return s
}
