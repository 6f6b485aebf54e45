package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/Portunus/gate/internal/db"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type AttemptStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttemptStore(db *sql.DB, writer *dbpkg.Worker) *AttemptStore {
	return &AttemptStore{db: db, writer: writer}
}

func (s *AttemptStore) RecordAttempt(ctx context.Context, rec types.AttemptRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now().UTC()
	}
	decidedMs := rec.DecidedAt.UTC().UnixMilli()

	var granted int
	if rec.Granted {
		granted = 1
	}

	var serialHash any
	if len(rec.RFIDSerialHash) == 32 {
		serialHash = rec.RFIDSerialHash
	}

	var accessID any
	if rec.AccessID != "" {
		accessID = rec.AccessID
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO auth_attempts(
  attempt_id, user_id, area_id, rfid_serial_hash, granted,
  stage, factor, reason, access_id, decided_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.UserID, rec.AreaID, serialHash, granted,
			rec.Stage, string(rec.Factor), rec.Reason, accessID, decidedMs,
		); err != nil {
			return fmt.Errorf("RecordAttempt insert: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes attempts decided before cutoff.
func (s *AttemptStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM auth_attempts
WHERE decided_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan auth_attempts: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
