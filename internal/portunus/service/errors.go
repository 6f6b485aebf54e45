package service

import (
	"errors"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

var (
	// ErrAuthentication matches every *AuthenticationError via errors.Is.
	ErrAuthentication = errors.New("authentication failed")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid input")
)

// Reason is a stable, machine-readable cause of an authentication failure.
type Reason string

const (
	ReasonIdentityMismatch         Reason = "identity_mismatch"
	ReasonCredentialNotCurrent     Reason = "credential_not_current"
	ReasonPINBlocked               Reason = "pin_blocked"
	ReasonIncorrectPIN             Reason = "incorrect_pin"
	ReasonPatternMismatch          Reason = "pattern_mismatch"
	ReasonTimingOutOfTolerance     Reason = "timing_out_of_tolerance"
	ReasonIncompletePINCapture     Reason = "incomplete_pin_capture"
	ReasonIncompletePatternCapture Reason = "incomplete_pattern_capture"
)

// AuthenticationError ends an attempt because a factor was rejected.
type AuthenticationError struct {
	Factor types.Factor
	Reason Reason
	Detail string
}

func (e *AuthenticationError) Error() string {
	return string(e.Factor) + ": " + e.Detail
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

func authFailure(f types.Factor, r Reason, detail string) error {
	return &AuthenticationError{Factor: f, Reason: r, Detail: detail}
}

// ValidationError reports malformed input.  The caller has to fix it; it is
// never a security decision.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Detail
	}
	return e.Field + ": " + e.Detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
