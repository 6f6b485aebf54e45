package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type PINStore struct {
	mu   sync.Mutex
	pins map[string]types.GesturePIN
}

func NewPINStore(pins ...types.GesturePIN) *PINStore {
	s := &PINStore{pins: make(map[string]types.GesturePIN, len(pins))}
	for _, p := range pins {
		s.pins[strings.TrimSpace(p.AreaID)] = clonePIN(p)
	}
	return s
}

func (s *PINStore) UpdatePIN(_ context.Context, areaID string, fn func(*types.GesturePIN) error) error {
	areaID = strings.TrimSpace(areaID)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pins[areaID]
	if !ok {
		return fmt.Errorf("gesture pin for area %q: %w", areaID, store.ErrNotFound)
	}
	// fn works on its own copy of the sequence.
	p = clonePIN(p)
	err := fn(&p)
	s.pins[areaID] = p
	return err
}

// PIN returns a copy of the stored PIN.  Test-only helper.
func (s *PINStore) PIN(areaID string) (types.GesturePIN, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pins[areaID]
	return clonePIN(p), ok
}

func clonePIN(p types.GesturePIN) types.GesturePIN {
	p.Sequence = slices.Clone(p.Sequence)
	return p
}
