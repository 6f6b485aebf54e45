package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/Portunus/gate/internal/db"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type PINStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewPINStore(db *sql.DB, writer *dbpkg.Worker) *PINStore {
	return &PINStore{db: db, writer: writer}
}

// UpdatePIN persists only state and failed_attempts; the reference sequence
// is never rewritten by validation.
func (s *PINStore) UpdatePIN(ctx context.Context, areaID string, fn func(*types.GesturePIN) error) error {
	areaID = strings.TrimSpace(areaID)

	var fnErr error
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		p, err := scanPIN(tx.QueryRowContext(ctx, `
SELECT area_id, sequence_json, state, failed_attempts
FROM gesture_pins
WHERE area_id = ?;
`, areaID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("gesture pin for area %q: %w", areaID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("UpdatePIN load: %w", err)
		}

		fnErr = fn(&p)

		if !p.State.Valid() {
			return fmt.Errorf("UpdatePIN: invalid state %q", p.State)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE gesture_pins
SET state = ?,
    failed_attempts = ?,
    updated_at_ms = ?
WHERE area_id = ?;
`, string(p.State), p.FailedAttempts, time.Now().UTC().UnixMilli(), areaID); err != nil {
			return fmt.Errorf("UpdatePIN save: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return fnErr
}

// PutPIN enrols or replaces the PIN of an area.  Re-putting a blocked PIN
// with State active is the administrative unblock.
func (s *PINStore) PutPIN(ctx context.Context, p types.GesturePIN) error {
	areaID := strings.TrimSpace(p.AreaID)
	if areaID == "" {
		return errors.New("PutPIN: area_id is required")
	}
	if p.State == "" {
		p.State = types.PINActive
	}
	if !p.State.Valid() {
		return fmt.Errorf("PutPIN: invalid state %q", p.State)
	}
	seq, err := encodeInts(p.Sequence)
	if err != nil {
		return fmt.Errorf("PutPIN: %w", err)
	}
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO gesture_pins(
  area_id, sequence_json, state, failed_attempts, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(area_id) DO UPDATE SET
  sequence_json = excluded.sequence_json,
  state = excluded.state,
  failed_attempts = excluded.failed_attempts,
  updated_at_ms = excluded.updated_at_ms;
`, areaID, seq, string(p.State), p.FailedAttempts, nowMs, nowMs); err != nil {
			return fmt.Errorf("PutPIN: %w", err)
		}
		return nil
	})
}

func (s *PINStore) PIN(ctx context.Context, areaID string) (types.GesturePIN, error) {
	areaID = strings.TrimSpace(areaID)
	p, err := scanPIN(s.db.QueryRowContext(ctx, `
SELECT area_id, sequence_json, state, failed_attempts
FROM gesture_pins
WHERE area_id = ?;
`, areaID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.GesturePIN{}, fmt.Errorf("gesture pin for area %q: %w", areaID, store.ErrNotFound)
	}
	if err != nil {
		return types.GesturePIN{}, fmt.Errorf("PIN query: %w", err)
	}
	return p, nil
}

func scanPIN(row rowScanner) (types.GesturePIN, error) {
	var (
		p     types.GesturePIN
		seq   string
		state string
	)
	if err := row.Scan(&p.AreaID, &seq, &state, &p.FailedAttempts); err != nil {
		return types.GesturePIN{}, err
	}
	ints, err := decodeInts(seq)
	if err != nil {
		return types.GesturePIN{}, err
	}
	p.Sequence = ints
	p.State = types.PINState(state)
	return p, nil
}
