package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/Portunus/gate/internal/db"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type AccessRecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessRecordStore(db *sql.DB, writer *dbpkg.Worker) *AccessRecordStore {
	return &AccessRecordStore{db: db, writer: writer}
}

func (s *AccessRecordStore) AddAccessRecord(ctx context.Context, rec types.AccessRecord) error {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return errors.New("AddAccessRecord: id is required")
	}
	if rec.EnteredAt.IsZero() {
		rec.EnteredAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_records(access_id, user_id, area_id, entered_at_ms, validation_record_id)
VALUES (?, ?, ?, ?, ?);
`, id, rec.UserID, rec.AreaID, rec.EnteredAt.UTC().UnixMilli(), rec.ValidationRecordID); err != nil {
			return fmt.Errorf("AddAccessRecord insert: %w", err)
		}
		return nil
	})
}

// AccessRecordsByUser returns a user's entries, newest first.
func (s *AccessRecordStore) AccessRecordsByUser(ctx context.Context, userID string, limit int) ([]types.AccessRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT access_id, user_id, area_id, entered_at_ms, validation_record_id
FROM access_records
WHERE user_id = ?
ORDER BY entered_at_ms DESC
LIMIT ?;
`, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("AccessRecordsByUser query: %w", err)
	}
	defer rows.Close()

	var out []types.AccessRecord
	for rows.Next() {
		var (
			r         types.AccessRecord
			enteredMs int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.AreaID, &enteredMs, &r.ValidationRecordID); err != nil {
			return nil, fmt.Errorf("AccessRecordsByUser scan: %w", err)
		}
		r.EnteredAt = msToTime(enteredMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes access records entered before cutoff.  Attempts
// that referenced them keep their row; the FK is cleared.
//
// Uses the idx_access_records_time index for an efficient range scan.
func (s *AccessRecordStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_records
WHERE entered_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan access_records: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
