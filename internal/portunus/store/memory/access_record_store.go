package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// AccessRecordStore is an in-memory append-only list of granted entries.
type AccessRecordStore struct {
	mu      sync.Mutex
	records []types.AccessRecord
}

func NewAccessRecordStore() *AccessRecordStore {
	return &AccessRecordStore{}
}

func (s *AccessRecordStore) AddAccessRecord(_ context.Context, rec types.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *AccessRecordStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.EnteredAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

// Records returns a copy of all stored records.  Test-only helper.
func (s *AccessRecordStore) Records() []types.AccessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AccessRecord, len(s.records))
	copy(out, s.records)
	return out
}
