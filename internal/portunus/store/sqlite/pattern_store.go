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

type PatternStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewPatternStore(db *sql.DB, writer *dbpkg.Worker) *PatternStore {
	return &PatternStore{db: db, writer: writer}
}

func (s *PatternStore) PatternByUser(ctx context.Context, userID string) (types.GesturePattern, error) {
	userID = strings.TrimSpace(userID)

	var (
		p       types.GesturePattern
		seq     string
		timings sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, sequence_json, timings_json
FROM gesture_patterns
WHERE user_id = ?;
`, userID).Scan(&p.UserID, &seq, &timings)
	if errors.Is(err, sql.ErrNoRows) {
		return types.GesturePattern{}, fmt.Errorf("gesture pattern for user %q: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return types.GesturePattern{}, fmt.Errorf("PatternByUser query: %w", err)
	}

	if p.Sequence, err = decodeInts(seq); err != nil {
		return types.GesturePattern{}, err
	}
	if p.Timings, err = decodeTimings(timings); err != nil {
		return types.GesturePattern{}, err
	}
	return p, nil
}

// PutPattern enrols or replaces a user's gesture template.
func (s *PatternStore) PutPattern(ctx context.Context, p types.GesturePattern) error {
	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return errors.New("PutPattern: user_id is required")
	}
	if p.Timings != nil && len(p.Timings) != len(p.Sequence) {
		return fmt.Errorf("PutPattern: %d timings for %d gestures", len(p.Timings), len(p.Sequence))
	}
	seq, err := encodeInts(p.Sequence)
	if err != nil {
		return fmt.Errorf("PutPattern: %w", err)
	}
	timings, err := encodeTimings(p.Timings)
	if err != nil {
		return fmt.Errorf("PutPattern: %w", err)
	}
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO gesture_patterns(user_id, sequence_json, timings_json, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  sequence_json = excluded.sequence_json,
  timings_json = excluded.timings_json,
  updated_at_ms = excluded.updated_at_ms;
`, userID, seq, timings, nowMs, nowMs); err != nil {
			return fmt.Errorf("PutPattern: %w", err)
		}
		return nil
	})
}
