package service

import (
	"context"
	"errors"
	"time"

	"github.com/BrandonDHaskell/Portunus/gate/internal/observability"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

type RFIDValidator struct {
	store   store.CredentialStore
	metrics *observability.Metrics
}

func NewRFIDValidator(s store.CredentialStore, m *observability.Metrics) *RFIDValidator {
	return &RFIDValidator{store: s, metrics: m}
}

// Validate checks the card presented as serial against expectedUserID on the
// date of now.  Every call is one attempt and updates the credential's
// counters whatever the outcome.
func (v *RFIDValidator) Validate(ctx context.Context, serial, expectedUserID string, now time.Time) error {
	expired := false

	err := v.store.UpdateCredential(ctx, serial, func(c *types.RFIDCredential) error {
		if c.OwnerID != expectedUserID {
			c.FailedAttempts++
			return authFailure(types.FactorRFID, ReasonIdentityMismatch,
				"identity mismatch: card is not registered to this user")
		}

		if !c.IsCurrent(now) {
			c.FailedAttempts++
			// Only the date moves a card to expired; a blocked or inactive
			// card that is still in date keeps its state.
			if c.ExpiredOn(now) && c.State != types.CredentialExpired {
				c.State = types.CredentialExpired
				expired = true
			}
			return authFailure(types.FactorRFID, ReasonCredentialNotCurrent,
				"credential not current (expired, blocked or inactive)")
		}

		c.SuccessfulAttempts++
		c.FailedAttempts = 0
		at := now
		c.LastAccessAt = &at
		return nil
	})

	if expired && errors.Is(err, ErrAuthentication) {
		v.metrics.ObserveLockout(string(types.FactorRFID), string(types.CredentialExpired))
	}
	return err
}
