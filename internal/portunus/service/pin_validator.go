package service

import (
	"context"
	"errors"
	"slices"

	"github.com/BrandonDHaskell/Portunus/gate/internal/observability"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type PINValidator struct {
	store       store.PINStore
	maxAttempts int
	metrics     *observability.Metrics
}

// NewPINValidator blocks a PIN after maxAttempts consecutive mismatches
// (DefaultMaxAttempts when maxAttempts <= 0).
func NewPINValidator(s store.PINStore, maxAttempts int, m *observability.Metrics) *PINValidator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &PINValidator{store: s, maxAttempts: maxAttempts, metrics: m}
}

// Validate compares captured with the area's PIN gesture by gesture.
func (v *PINValidator) Validate(ctx context.Context, areaID string, captured []int) error {
	blocked := false

	err := v.store.UpdatePIN(ctx, areaID, func(p *types.GesturePIN) error {
		if p.State == types.PINBlocked {
			return authFailure(types.FactorPIN, ReasonPINBlocked, "PIN blocked for this area")
		}

		if !slices.Equal(captured, p.Sequence) {
			p.FailedAttempts++
			if p.FailedAttempts >= v.maxAttempts {
				p.State = types.PINBlocked
				blocked = true
			}
			return authFailure(types.FactorPIN, ReasonIncorrectPIN, "incorrect PIN")
		}

		p.FailedAttempts = 0
		return nil
	})

	if blocked && errors.Is(err, ErrAuthentication) {
		v.metrics.ObserveLockout(string(types.FactorPIN), string(types.PINBlocked))
	}
	return err
}
