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

var testPattern = []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}

func TestPatternStore_RoundTrip_WithoutTimings(t *testing.T) {
	conn := openTestDB(t)
	ps := sqlitestore.NewPatternStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := ps.PutPattern(ctx, types.GesturePattern{UserID: "user-001", Sequence: testPattern}); err != nil {
		t.Fatalf("PutPattern: %v", err)
	}

	p, err := ps.PatternByUser(ctx, "user-001")
	if err != nil {
		t.Fatalf("PatternByUser: %v", err)
	}
	if !slices.Equal(p.Sequence, testPattern) {
		t.Errorf("sequence = %v", p.Sequence)
	}
	if p.Timings != nil {
		t.Errorf("timings = %v, want nil", p.Timings)
	}
}

func TestPatternStore_RoundTrip_WithTimings(t *testing.T) {
	conn := openTestDB(t)
	ps := sqlitestore.NewPatternStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	timings := []float64{0, 210.5, 190, 200, 0, 180.25, 220, 205, 199, 201}
	if err := ps.PutPattern(ctx, types.GesturePattern{UserID: "user-001", Sequence: testPattern, Timings: timings}); err != nil {
		t.Fatalf("PutPattern: %v", err)
	}

	p, _ := ps.PatternByUser(ctx, "user-001")
	if !slices.Equal(p.Timings, timings) {
		t.Errorf("timings = %v, want %v", p.Timings, timings)
	}
}

func TestPatternStore_PutRejectsMismatchedTimings(t *testing.T) {
	conn := openTestDB(t)
	ps := sqlitestore.NewPatternStore(conn, newTestWriter(t, conn))

	err := ps.PutPattern(context.Background(), types.GesturePattern{
		UserID: "user-001", Sequence: testPattern, Timings: []float64{1, 2},
	})
	if err == nil {
		t.Fatal("expected error for timings length mismatch")
	}
}

func TestPatternStore_NotFound(t *testing.T) {
	conn := openTestDB(t)
	ps := sqlitestore.NewPatternStore(conn, newTestWriter(t, conn))

	_, err := ps.PatternByUser(context.Background(), "nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
