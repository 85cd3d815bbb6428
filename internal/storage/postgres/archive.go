package postgres

import (
	"context"
	"fmt"

	"github.com/dailydigest/digestd/internal/digest"
)

// Archive stores reply notes in a Postgres table keyed by candidate ID.
type Archive struct {
	pool  Pool
	table string
}

// NewArchive constructs an Archive over an existing pool.
func NewArchive(pool Pool, table string) (*Archive, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "reply_notes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Archive{pool: pool, table: table}, nil
}

// Has reports whether a note with the given candidate ID exists.
func (a *Archive) Has(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, a.table)
	var exists bool
	if err := a.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check note %s: %w", id, err)
	}
	return exists, nil
}

// Append inserts a note, replacing any previous note for the same ID.
func (a *Archive) Append(ctx context.Context, note digest.ReplyNote) error {
	if note.ID == "" {
		return fmt.Errorf("note id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, url, title, note, received_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET note = EXCLUDED.note, received_at = EXCLUDED.received_at`, a.table)
	args := []any{note.ID, note.URL, note.Title, note.Note, note.ReceivedAt}
	if _, err := a.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert note %s: %w", note.ID, err)
	}
	return nil
}
