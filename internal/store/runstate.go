package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// The scheduler run stamp is a single shared row acting as an advisory lock
// with a TTL: whichever process flips it first within the throttle window
// owns the run. The update is a compare-and-swap so two processes racing on
// the same instant cannot both win.

// AcquireRunStamp atomically claims the run slot if the stored stamp is
// absent or older than window. Returns true when this caller won the slot.
func (s *Store) AcquireRunStamp(ctx context.Context, now time.Time, window time.Duration) (bool, error) {
	cutoff := now.Add(-window)
	res, err := s.DB.ExecContext(ctx, `
		UPDATE scheduler_state
		SET last_run_at = ?
		WHERE id = 1 AND (last_run_at IS NULL OR last_run_at <= ?)`,
		now.UTC(), cutoff.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TouchRunStamp overwrites the run stamp unconditionally. Used by the force
// path (which bypasses the throttle) and to refresh the stamp to the actual
// completion time of a run.
func (s *Store) TouchRunStamp(ctx context.Context, now time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE scheduler_state SET last_run_at = ? WHERE id = 1`, now.UTC())
	return err
}

// LastRunAt reports the shared stamp, nil when no run has ever happened.
func (s *Store) LastRunAt(ctx context.Context) (*time.Time, error) {
	var t sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT last_run_at FROM scheduler_state WHERE id = 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	v := t.Time
	return &v, nil
}
