package service

import (
	"context"
	"fmt"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// PatternMatcher compares a captured gesture pattern with the user's
// enrolled template.  Templates are never modified.
type PatternMatcher struct {
	store     store.PatternStore
	threshold float64
}

func NewPatternMatcher(s store.PatternStore, threshold float64) *PatternMatcher {
	if !(threshold > 0 && threshold <= 1) {
		threshold = DefaultPatternThreshold
	}
	return &PatternMatcher{store: s, threshold: threshold}
}

func (m *PatternMatcher) Threshold() float64 { return m.threshold }

// Validate accepts captured when its similarity to the template is at least
// the threshold and, if both sides carry timings of equal length, every
// delay is within tolerance.  A nil timings slice skips the timing check.
func (m *PatternMatcher) Validate(ctx context.Context, userID string, captured []int, timings []float64) error {
	ref, err := m.store.PatternByUser(ctx, userID)
	if err != nil {
		return err
	}

	if len(captured) == 0 {
		return &ValidationError{Field: "pattern", Detail: "captured gesture sequence is empty"}
	}

	similarity := Similarity(ref.Sequence, captured)
	if similarity < m.threshold {
		return authFailure(types.FactorPattern, ReasonPatternMismatch,
			fmt.Sprintf("pattern mismatch (similarity=%.2f, threshold=%.2f)", similarity, m.threshold))
	}

	if i := TimingViolation(ref.Timings, timings); i >= 0 {
		return authFailure(types.FactorPattern, ReasonTimingOutOfTolerance,
			fmt.Sprintf("timing out of tolerance at gesture %d", i))
	}
	return nil
}

// Similarity counts positions where both sequences hold the same gesture and
// divides by the longer length, so a capture of the wrong length can never
// score 1.0.
func Similarity(reference, captured []int) float64 {
	n := max(len(reference), len(captured))
	if n == 0 {
		return 0
	}

	matches := 0
	for i, m := 0, min(len(reference), len(captured)); i < m; i++ {
		if reference[i] == captured[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// TimingViolation returns the index of the first captured delay outside
// [0.6, 1.4] times its reference, or -1 if there is none.  It returns -1
// without checking when either side is nil or the lengths differ.  Zero
// reference delays are not checked.
func TimingViolation(reference, captured []float64) int {
	if reference == nil || captured == nil || len(reference) != len(captured) {
		return -1
	}
	for i, ref := range reference {
		if ref == 0 {
			continue
		}
		got := captured[i]
		if !(timingLowerFactor*ref <= got && got <= timingUpperFactor*ref) {
			return i
		}
	}
	return -1
}
