// Package file implements the compiled-summaries archive as a local
// markdown file plus a JSON index of archived candidate IDs.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dailydigest/digestd/internal/digest"
)

// Archive appends user-authored summaries to a markdown document. The
// index file makes Has cheap and keeps Append idempotent across poll
// cycles.
type Archive struct {
	notesPath string
	indexPath string
}

// New builds an Archive rooted at notesPath. The index lives alongside it.
func New(notesPath string) (*Archive, error) {
	if notesPath == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	return &Archive{
		notesPath: notesPath,
		indexPath: notesPath + ".index.json",
	}, nil
}

// Has reports whether a note for id was already archived.
func (a *Archive) Has(_ context.Context, id string) (bool, error) {
	idx, err := a.loadIndex()
	if err != nil {
		return false, err
	}
	_, ok := idx[id]
	return ok, nil
}

// Append writes the note as a markdown section and records its ID in the
// index. Appending the same ID twice is a no-op.
func (a *Archive) Append(ctx context.Context, note digest.ReplyNote) error {
	if note.ID == "" {
		return fmt.Errorf("note id is required")
	}
	if ok, err := a.Has(ctx, note.ID); err != nil {
		return err
	} else if ok {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(a.notesPath), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(a.notesPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", a.notesPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(renderSection(note)); err != nil {
		return fmt.Errorf("append to archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}

	idx, err := a.loadIndex()
	if err != nil {
		return err
	}
	idx[note.ID] = struct{}{}
	return a.saveIndex(idx)
}

func renderSection(note digest.ReplyNote) string {
	title := note.Title
	if title == "" {
		title = note.URL
	}
	return fmt.Sprintf("## %s\n\nLink: %s\nCaptured: %s\n\n%s\n\n---\n\n",
		title, note.URL, note.ReceivedAt.Format("2006-01-02 15:04 MST"), note.Note)
}

func (a *Archive) loadIndex() (map[string]struct{}, error) {
	data, err := os.ReadFile(a.indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive index: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode archive index: %w", err)
	}
	idx := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idx[id] = struct{}{}
	}
	return idx, nil
}

func (a *Archive) saveIndex(idx map[string]struct{}) error {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode archive index: %w", err)
	}
	tmp := a.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write archive index: %w", err)
	}
	if err := os.Rename(tmp, a.indexPath); err != nil {
		return fmt.Errorf("replace archive index: %w", err)
	}
	return nil
}
