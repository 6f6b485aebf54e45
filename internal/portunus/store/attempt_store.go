package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// AttemptStore persists every authentication attempt as an append-only
// audit log.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, rec types.AttemptRecord) error
}
