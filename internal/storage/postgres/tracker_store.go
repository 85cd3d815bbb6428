// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailydigest/digestd/internal/digest"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Pool is the subset of pgxpool.Pool the stores need. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	TrackerTable    string
	ArchiveTable    string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Connect builds a pgx pool from config.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("tracker.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// TrackerStore keeps the whole tracker record as a single JSONB row,
// matching the file store's full-rewrite semantics.
type TrackerStore struct {
	pool  Pool
	table string
}

// NewTrackerStore constructs a store over an existing pool.
func NewTrackerStore(pool Pool, table string) (*TrackerStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "tracker_state"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &TrackerStore{pool: pool, table: table}, nil
}

// Load reads the single state row. No row yields an empty record.
func (s *TrackerStore) Load(ctx context.Context) (digest.TrackerRecord, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = 1`, s.table)
	var raw []byte
	err := s.pool.QueryRow(ctx, query).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return digest.TrackerRecord{}, nil
	}
	if err != nil {
		return digest.TrackerRecord{}, fmt.Errorf("load tracker row: %w", err)
	}
	var rec digest.TrackerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return digest.TrackerRecord{}, fmt.Errorf("decode tracker row: %w", err)
	}
	return rec, nil
}

// Save upserts the state row with the full record.
func (s *TrackerStore) Save(ctx context.Context, rec digest.TrackerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tracker record: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, record, updated_at)
VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`, s.table)
	if _, err := s.pool.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("upsert tracker row: %w", err)
	}
	return nil
}
