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

type CredentialStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCredentialStore(db *sql.DB, writer *dbpkg.Worker) *CredentialStore {
	return &CredentialStore{db: db, writer: writer}
}

// UpdateCredential runs fn inside a single writer transaction, so concurrent
// attempts against the same card are serialised.  fn's error does not roll
// back its mutations: failed-attempt counters must stick.
func (s *CredentialStore) UpdateCredential(ctx context.Context, serial string, fn func(*types.RFIDCredential) error) error {
	serial = strings.TrimSpace(serial)

	var fnErr error
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCredential(tx.QueryRowContext(ctx, `
SELECT serial, owner_id, expires_on, state, failed_attempts, successful_attempts, last_access_at_ms
FROM rfid_credentials
WHERE serial = ?;
`, serial))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("rfid credential %q: %w", serial, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("UpdateCredential load: %w", err)
		}

		fnErr = fn(&c)

		if !c.State.Valid() {
			return fmt.Errorf("UpdateCredential: invalid state %q", c.State)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE rfid_credentials
SET state = ?,
    failed_attempts = ?,
    successful_attempts = ?,
    last_access_at_ms = ?,
    updated_at_ms = ?
WHERE serial = ?;
`, string(c.State), c.FailedAttempts, c.SuccessfulAttempts, nullableMs(c.LastAccessAt),
			time.Now().UTC().UnixMilli(), serial); err != nil {
			return fmt.Errorf("UpdateCredential save: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return fnErr
}

// PutCredential enrols or replaces a credential.
func (s *CredentialStore) PutCredential(ctx context.Context, c types.RFIDCredential) error {
	serial := strings.TrimSpace(c.Serial)
	if serial == "" {
		return errors.New("PutCredential: serial is required")
	}
	if c.State == "" {
		c.State = types.CredentialActive
	}
	if !c.State.Valid() {
		return fmt.Errorf("PutCredential: invalid state %q", c.State)
	}
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rfid_credentials(
  serial, owner_id, expires_on, state, failed_attempts, successful_attempts,
  last_access_at_ms, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(serial) DO UPDATE SET
  owner_id = excluded.owner_id,
  expires_on = excluded.expires_on,
  state = excluded.state,
  failed_attempts = excluded.failed_attempts,
  successful_attempts = excluded.successful_attempts,
  last_access_at_ms = excluded.last_access_at_ms,
  updated_at_ms = excluded.updated_at_ms;
`,
			serial, c.OwnerID, c.ExpiresOn.Format(time.DateOnly), string(c.State),
			c.FailedAttempts, c.SuccessfulAttempts, nullableMs(c.LastAccessAt), nowMs, nowMs,
		); err != nil {
			return fmt.Errorf("PutCredential: %w", err)
		}
		return nil
	})
}

// Credential reads a credential without locking it.
func (s *CredentialStore) Credential(ctx context.Context, serial string) (types.RFIDCredential, error) {
	serial = strings.TrimSpace(serial)
	c, err := scanCredential(s.db.QueryRowContext(ctx, `
SELECT serial, owner_id, expires_on, state, failed_attempts, successful_attempts, last_access_at_ms
FROM rfid_credentials
WHERE serial = ?;
`, serial))
	if errors.Is(err, sql.ErrNoRows) {
		return types.RFIDCredential{}, fmt.Errorf("rfid credential %q: %w", serial, store.ErrNotFound)
	}
	if err != nil {
		return types.RFIDCredential{}, fmt.Errorf("Credential query: %w", err)
	}
	return c, nil
}

func scanCredential(row rowScanner) (types.RFIDCredential, error) {
	var (
		c          types.RFIDCredential
		expiresOn  string
		state      string
		lastAccess sql.NullInt64
	)
	if err := row.Scan(&c.Serial, &c.OwnerID, &expiresOn, &state,
		&c.FailedAttempts, &c.SuccessfulAttempts, &lastAccess); err != nil {
		return types.RFIDCredential{}, err
	}

	exp, err := time.Parse(time.DateOnly, expiresOn)
	if err != nil {
		return types.RFIDCredential{}, fmt.Errorf("parse expires_on %q: %w", expiresOn, err)
	}
	c.ExpiresOn = exp
	c.State = types.CredentialState(state)
	if lastAccess.Valid {
		t := msToTime(lastAccess.Int64)
		c.LastAccessAt = &t
	}
	return c, nil
}
