package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RunLogStore persists the repeat scheduler's watermark: the timestamp
// of the last successful run. There is at most one logical row.
type RunLogStore struct {
	db *sql.DB
}

func NewRunLogStore(db *sql.DB) *RunLogStore {
	return &RunLogStore{db: db}
}

// Get returns the last successful run time, or nil if the scheduler has
// never completed a run.
func (s *RunLogStore) Get() (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRow(`SELECT last_run_at FROM run_time_log WHERE id = 1`).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run log: %w", err)
	}
	return &at, nil
}

// Set replaces the watermark atomically.
func (s *RunLogStore) Set(at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO run_time_log (id, last_run_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_run_at = excluded.last_run_at`,
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("set run log: %w", err)
	}
	return nil
}
