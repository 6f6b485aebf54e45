package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// CredentialStore keeps RFID credentials in memory, keyed by serial.
// It is intended for use in tests and dev environments.
type CredentialStore struct {
	mu    sync.Mutex
	creds map[string]types.RFIDCredential
}

func NewCredentialStore(creds ...types.RFIDCredential) *CredentialStore {
	s := &CredentialStore{creds: make(map[string]types.RFIDCredential, len(creds))}
	for _, c := range creds {
		s.creds[strings.TrimSpace(c.Serial)] = c
	}
	return s
}

func (s *CredentialStore) UpdateCredential(_ context.Context, serial string, fn func(*types.RFIDCredential) error) error {
	serial = strings.TrimSpace(serial)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[serial]
	if !ok {
		return fmt.Errorf("rfid credential %q: %w", serial, store.ErrNotFound)
	}
	err := fn(&c)
	s.creds[serial] = c
	return err
}

// Credential returns a copy of the stored credential.  Test-only helper.
func (s *CredentialStore) Credential(serial string) (types.RFIDCredential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[serial]
	if ok && c.LastAccessAt != nil {
		t := *c.LastAccessAt
		c.LastAccessAt = &t
	}
	return c, ok
}
