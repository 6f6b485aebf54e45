package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type PatternStore interface {
	PatternByUser(ctx context.Context, userID string) (types.GesturePattern, error)
}
