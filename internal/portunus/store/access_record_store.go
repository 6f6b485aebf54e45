package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// AccessRecordStore persists granted entries. Records are never updated.
type AccessRecordStore interface {
	AddAccessRecord(ctx context.Context, rec types.AccessRecord) error
}
