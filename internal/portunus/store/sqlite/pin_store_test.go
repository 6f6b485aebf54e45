package sqlite_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store/sqlite"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

func newPINStore(t *testing.T) *sqlitestore.PINStore {
	t.Helper()
	conn := openTestDB(t)
	ps := sqlitestore.NewPINStore(conn, newTestWriter(t, conn))

	if err := ps.PutPIN(context.Background(), types.GesturePIN{AreaID: "area-main", Sequence: testSequence}); err != nil {
		t.Fatalf("PutPIN: %v", err)
	}
	return ps
}

// ═══════════════════════════════════════════════════════════════════════════
// UpdatePIN
// ═══════════════════════════════════════════════════════════════════════════

func TestPINStore_Update_CallbackErrorStillCommits(t *testing.T) {
	ps := newPINStore(t)
	ctx := context.Background()

	err := ps.UpdatePIN(ctx, "area-main", func(p *types.GesturePIN) error {
		p.FailedAttempts = 3
		p.State = types.PINBlocked
		return errRejected
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected callback error, got %v", err)
	}

	p, err := ps.PIN(ctx, "area-main")
	if err != nil {
		t.Fatalf("PIN: %v", err)
	}
	if p.State != types.PINBlocked || p.FailedAttempts != 3 {
		t.Errorf("mutation lost: %+v", p)
	}
}

func TestPINStore_Update_SequenceIsNotRewritten(t *testing.T) {
	ps := newPINStore(t)
	ctx := context.Background()

	err := ps.UpdatePIN(ctx, "area-main", func(p *types.GesturePIN) error {
		p.Sequence = []int{9, 9, 9, 9}
		return nil
	})
	if err != nil {
		t.Fatalf("UpdatePIN: %v", err)
	}

	p, _ := ps.PIN(ctx, "area-main")
	if !slices.Equal(p.Sequence, testSequence) {
		t.Errorf("sequence = %v, want %v", p.Sequence, testSequence)
	}
}

func TestPINStore_Update_NotFound(t *testing.T) {
	ps := newPINStore(t)
	err := ps.UpdatePIN(context.Background(), "area-x", func(*types.GesturePIN) error { return nil })
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// PutPIN: administrative unblock
// ═══════════════════════════════════════════════════════════════════════════

func TestPINStore_PutActiveUnblocks(t *testing.T) {
	ps := newPINStore(t)
	ctx := context.Background()

	_ = ps.UpdatePIN(ctx, "area-main", func(p *types.GesturePIN) error {
		p.State = types.PINBlocked
		p.FailedAttempts = 3
		return nil
	})
	if err := ps.PutPIN(ctx, types.GesturePIN{AreaID: "area-main", Sequence: testSequence}); err != nil {
		t.Fatalf("PutPIN: %v", err)
	}

	p, _ := ps.PIN(ctx, "area-main")
	if p.State != types.PINActive || p.FailedAttempts != 0 {
		t.Errorf("not unblocked: %+v", p)
	}
}
