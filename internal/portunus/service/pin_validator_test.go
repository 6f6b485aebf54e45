package service_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store/memory"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

func TestPINValidator_Match_ResetsFailures(t *testing.T) {
	pin := activePIN()
	pin.FailedAttempts = 2
	st := memory.NewPINStore(pin)
	v := service.NewPINValidator(st, 3, nil)

	require.NoError(t, v.Validate(context.Background(), testArea, []int{1, 2, 3, 4}))

	got, _ := st.PIN(testArea)
	assert.Equal(t, 0, got.FailedAttempts)
	assert.Equal(t, types.PINActive, got.State)
}

func TestPINValidator_BlocksOnMaxthFailure(t *testing.T) {
	st := memory.NewPINStore(activePIN())
	v := service.NewPINValidator(st, 3, nil)
	ctx := context.Background()
	wrong := []int{4, 3, 2, 1}

	for i := 1; i <= 2; i++ {
		err := v.Validate(ctx, testArea, wrong)
		assertReason(t, err, service.ReasonIncorrectPIN)
		got, _ := st.PIN(testArea)
		assert.Equal(t, i, got.FailedAttempts)
		assert.Equal(t, types.PINActive, got.State)
	}

	err := v.Validate(ctx, testArea, wrong)
	assertReason(t, err, service.ReasonIncorrectPIN)
	got, _ := st.PIN(testArea)
	assert.Equal(t, 3, got.FailedAttempts)
	assert.Equal(t, types.PINBlocked, got.State)

	// The right PIN no longer helps.
	err = v.Validate(ctx, testArea, []int{1, 2, 3, 4})
	assertReason(t, err, service.ReasonPINBlocked)
	got, _ = st.PIN(testArea)
	assert.Equal(t, 3, got.FailedAttempts)
}

func TestPINValidator_LengthMismatchIsIncorrect(t *testing.T) {
	st := memory.NewPINStore(activePIN())
	v := service.NewPINValidator(st, 3, nil)

	err := v.Validate(context.Background(), testArea, []int{1, 2, 3})
	assertReason(t, err, service.ReasonIncorrectPIN)
	assert.Contains(t, err.Error(), "incorrect PIN")
}

func TestPINValidator_UnknownArea_NotFound(t *testing.T) {
	v := service.NewPINValidator(memory.NewPINStore(), 3, nil)
	err := v.Validate(context.Background(), "nowhere", []int{1, 2, 3, 4})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPINValidator_NonPositiveMaxUsesDefault(t *testing.T) {
	st := memory.NewPINStore(activePIN())
	v := service.NewPINValidator(st, 0, nil)
	ctx := context.Background()

	for i := 0; i < service.DefaultMaxAttempts; i++ {
		require.Error(t, v.Validate(ctx, testArea, []int{0, 0, 0, 0}))
	}
	got, _ := st.PIN(testArea)
	assert.Equal(t, types.PINBlocked, got.State)
}

func TestPINValidator_CounterProgressionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxAttempts := rapid.IntRange(1, 6).Draw(rt, "max")
		pin := activePIN()
		pin.FailedAttempts = rapid.IntRange(0, maxAttempts-1).Draw(rt, "failed")
		st := memory.NewPINStore(pin)

		captured := rapid.SliceOfN(rapid.IntRange(0, 9), 4, 4).
			Filter(func(c []int) bool { return !slices.Equal(c, testPIN) }).
			Draw(rt, "captured")

		err := service.NewPINValidator(st, maxAttempts, nil).Validate(context.Background(), testArea, captured)
		if err == nil {
			rt.Fatalf("wrong PIN %v accepted", captured)
		}

		got, _ := st.PIN(testArea)
		if got.FailedAttempts != pin.FailedAttempts+1 {
			rt.Fatalf("failed attempts %d, want %d", got.FailedAttempts, pin.FailedAttempts+1)
		}
		wantBlocked := pin.FailedAttempts+1 >= maxAttempts
		if (got.State == types.PINBlocked) != wantBlocked {
			rt.Fatalf("state %s after %d/%d failures", got.State, got.FailedAttempts, maxAttempts)
		}
	})
}

func TestPINValidator_BlockedIsImmutableProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pin := activePIN()
		pin.State = types.PINBlocked
		pin.FailedAttempts = rapid.IntRange(0, 50).Draw(rt, "failed")
		st := memory.NewPINStore(pin)

		captured := rapid.SliceOfN(rapid.IntRange(0, 9), 0, 8).Draw(rt, "captured")
		err := service.NewPINValidator(st, 3, nil).Validate(context.Background(), testArea, captured)

		var authErr *service.AuthenticationError
		if !errorsAs(err, &authErr) || authErr.Reason != service.ReasonPINBlocked {
			rt.Fatalf("expected pin_blocked, got %v", err)
		}
		got, _ := st.PIN(testArea)
		if got.State != types.PINBlocked || got.FailedAttempts != pin.FailedAttempts {
			rt.Fatalf("blocked PIN mutated: %+v", got)
		}
	})
}
