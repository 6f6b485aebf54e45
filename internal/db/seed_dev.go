package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Dev fixtures.  Everything here is inserted with INSERT OR IGNORE so
// re-seeding never resets counters or lockouts accumulated while testing.
const (
	DevUserID     = "user-001"
	DevAreaID     = "area-main"
	DevRFIDSerial = "04A1B2C3D4"
)

var (
	devPIN     = []int{1, 2, 3, 4}
	devPattern = []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
)

type SeedDevOptions struct {
	// ExpiresIn is how long the dev credential stays valid.  Defaults to one year.
	ExpiresIn time.Duration
}

func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	if opt.ExpiresIn <= 0 {
		opt.ExpiresIn = 365 * 24 * time.Hour
	}
	expiresOn := now.Add(opt.ExpiresIn).Format(time.DateOnly)

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO rfid_credentials(
  serial, owner_id, expires_on, state, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, 'active', ?, ?);`,
		DevRFIDSerial, DevUserID, expiresOn, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed rfid credential: %w", err)
	}

	pin, err := json.Marshal(devPIN)
	if err != nil {
		return fmt.Errorf("seed pin: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO gesture_pins(
  area_id, sequence_json, state, created_at_ms, updated_at_ms
) VALUES (?, ?, 'active', ?, ?);`,
		DevAreaID, string(pin), nowMs, nowMs); err != nil {
		return fmt.Errorf("seed gesture pin: %w", err)
	}

	pattern, err := json.Marshal(devPattern)
	if err != nil {
		return fmt.Errorf("seed pattern: %w", err)
	}
	// No timing reference: the dev pattern matches on sequence only.
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO gesture_patterns(
  user_id, sequence_json, timings_json, created_at_ms, updated_at_ms
) VALUES (?, ?, NULL, ?, ?);`,
		DevUserID, string(pattern), nowMs, nowMs); err != nil {
		return fmt.Errorf("seed gesture pattern: %w", err)
	}

	return nil
}
