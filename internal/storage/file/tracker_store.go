// Package file persists tracker state as a JSON file on local disk.
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

// TrackerStore rewrites the full tracking file on every save. The write
// goes through a temp file and rename so a crash mid-save never leaves a
// truncated record behind.
type TrackerStore struct {
	path string
}

// NewTrackerStore returns a store backed by path. The file does not need
// to exist yet.
func NewTrackerStore(path string) (*TrackerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("tracker file path is required")
	}
	return &TrackerStore{path: path}, nil
}

// Load reads the tracking file. A missing file yields an empty record.
func (s *TrackerStore) Load(_ context.Context) (digest.TrackerRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return digest.TrackerRecord{}, nil
	}
	if err != nil {
		return digest.TrackerRecord{}, fmt.Errorf("read tracker file %s: %w", s.path, err)
	}
	var rec digest.TrackerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return digest.TrackerRecord{}, fmt.Errorf("decode tracker file %s: %w", s.path, err)
	}
	return rec, nil
}

// Save rewrites the tracking file with the given record.
func (s *TrackerStore) Save(_ context.Context, rec digest.TrackerRecord) error {
	if rec.SentURLs == nil {
		rec.SentURLs = []string{}
	}
	if rec.History == nil {
		rec.History = []digest.HistoryEntry{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tracker record: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tracker dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tracker-*")
	if err != nil {
		return fmt.Errorf("create temp tracker file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write tracker file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync tracker file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tracker file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace tracker file %s: %w", s.path, err)
	}
	return nil
}
