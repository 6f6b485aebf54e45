package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}

func assertReason(t *testing.T, err error, want service.Reason) {
	t.Helper()
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, want, authErr.Reason)
}

func TestAuthenticationError_MatchesSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", &service.AuthenticationError{
		Factor: types.FactorPIN,
		Reason: service.ReasonIncorrectPIN,
		Detail: "incorrect PIN",
	})

	assert.ErrorIs(t, err, service.ErrAuthentication)
	assert.NotErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, "outer: pin: incorrect PIN", err.Error())
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "user_id: is required",
		(&service.ValidationError{Field: "user_id", Detail: "is required"}).Error())
	assert.Equal(t, "bad", (&service.ValidationError{Detail: "bad"}).Error())
	assert.ErrorIs(t, &service.ValidationError{Detail: "bad"}, service.ErrValidation)
}
