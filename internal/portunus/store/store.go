package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by every lookup that finds no matching entity.
var ErrNotFound = errors.New("not found")

// Prunable is implemented by append-only logs that support retention.
type Prunable interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
