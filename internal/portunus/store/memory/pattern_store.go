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

type PatternStore struct {
	mu       sync.RWMutex
	patterns map[string]types.GesturePattern
}

func NewPatternStore(patterns ...types.GesturePattern) *PatternStore {
	s := &PatternStore{patterns: make(map[string]types.GesturePattern, len(patterns))}
	for _, p := range patterns {
		s.patterns[strings.TrimSpace(p.UserID)] = p
	}
	return s
}

func (s *PatternStore) PatternByUser(_ context.Context, userID string) (types.GesturePattern, error) {
	userID = strings.TrimSpace(userID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patterns[userID]
	if !ok {
		return types.GesturePattern{}, fmt.Errorf("gesture pattern for user %q: %w", userID, store.ErrNotFound)
	}
	p.Sequence = slices.Clone(p.Sequence)
	p.Timings = slices.Clone(p.Timings)
	return p, nil
}
