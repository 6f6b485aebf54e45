package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// CredentialStore gives validators exclusive, atomic read-modify-write access
// to a single RFID credential.
type CredentialStore interface {
	// UpdateCredential loads the credential for serial and hands it to fn.
	// Whatever fn leaves in the credential is persisted, even when fn returns
	// an error; that error is then returned unchanged. Fails with ErrNotFound
	// (fn is not called) if the serial is unknown.
	UpdateCredential(ctx context.Context, serial string, fn func(*types.RFIDCredential) error) error
}
