package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// PINStore has the same write-through-on-error contract as CredentialStore.
type PINStore interface {
	UpdatePIN(ctx context.Context, areaID string, fn func(*types.GesturePIN) error) error
}
