package memory

import (
	"context"
	"sync"

	"github.com/dailydigest/digestd/internal/digest"
)

// Archive keeps reply notes in memory, keyed by candidate ID.
type Archive struct {
	mu    sync.Mutex
	notes map[string]digest.ReplyNote
}

// NewArchive constructs an empty Archive.
func NewArchive() *Archive {
	return &Archive{notes: make(map[string]digest.ReplyNote)}
}

// Has reports whether a note for id was archived.
func (a *Archive) Has(_ context.Context, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.notes[id]
	return ok, nil
}

// Append stores a note, overwriting any previous note for the same ID.
func (a *Archive) Append(_ context.Context, note digest.ReplyNote) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes[note.ID] = note
	return nil
}

// Notes returns a copy of all archived notes.
func (a *Archive) Notes() []digest.ReplyNote {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]digest.ReplyNote, 0, len(a.notes))
	for _, n := range a.notes {
		out = append(out, n)
	}
	return out
}
