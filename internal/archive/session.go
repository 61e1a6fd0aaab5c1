package archive

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const savepointName = "game_merge"

// Session scopes writes against a target archive into atomic units. A real
// session commits one transaction per unit. A dry-run session runs every unit
// inside a single outer transaction, isolating units with savepoints, and
// discards everything on Close.
type Session struct {
	archive *Archive
	dryRun  bool
	outer   *sqlx.Tx
}

// Begin starts a write session against the archive.
func (a *Archive) Begin(ctx context.Context, dryRun bool) (*Session, error) {
	if a.readOnly {
		return nil, fmt.Errorf("cannot write to read-only archive %s", a.path)
	}
	s := &Session{archive: a, dryRun: dryRun}
	if dryRun {
		tx, err := a.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin dry-run transaction: %w", err)
		}
		s.outer = tx
	}
	return s, nil
}

// DryRun reports whether the session discards its writes
func (s *Session) DryRun() bool {
	return s.dryRun
}

// Do runs fn as one atomic unit. If fn returns an error every write it made is
// undone and the error is returned unchanged.
func (s *Session) Do(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.dryRun {
		return s.doSavepoint(ctx, fn)
	}

	tx, err := s.archive.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Session) doSavepoint(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.outer == nil {
		return fmt.Errorf("session is closed")
	}
	if _, err := s.outer.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(s.outer); err != nil {
		if _, rbErr := s.outer.ExecContext(ctx, "ROLLBACK TO "+savepointName); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint failed: %v)", err, rbErr)
		}
		if _, relErr := s.outer.ExecContext(ctx, "RELEASE "+savepointName); relErr != nil {
			return fmt.Errorf("%w (release savepoint failed: %v)", err, relErr)
		}
		return err
	}

	if _, err := s.outer.ExecContext(ctx, "RELEASE "+savepointName); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// Close ends the session. Dry-run writes are rolled back here.
func (s *Session) Close() error {
	if s.outer == nil {
		return nil
	}
	err := s.outer.Rollback()
	s.outer = nil
	if err != nil {
		return fmt.Errorf("failed to roll back dry-run transaction: %w", err)
	}
	return nil
}
