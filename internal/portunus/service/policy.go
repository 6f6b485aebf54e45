package service

// Capture lengths of the two gesture factors.
const (
	PINLength     = 4
	PatternLength = 10
)

const (
	DefaultMaxAttempts      = 3
	DefaultPatternThreshold = 0.9
	DefaultClosingGesture   = 0

	// Captured inter-gesture delays must fall within ±40% of the reference.
	timingLowerFactor = 0.6
	timingUpperFactor = 1.4
)

type Policy struct {
	// MaxRFIDAttempts is carried for parity with the PIN policy but is not
	// enforced: RFID failures are counted and never lock the credential.
	MaxRFIDAttempts int

	// MaxPINAttempts is the consecutive-failure count that blocks a PIN.
	MaxPINAttempts int

	// PatternThreshold is the minimum similarity a pattern capture must reach.
	PatternThreshold float64

	// ClosingGesture ends a capture early when performed.  nil disables it.
	ClosingGesture *int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRFIDAttempts:  DefaultMaxAttempts,
		MaxPINAttempts:   DefaultMaxAttempts,
		PatternThreshold: DefaultPatternThreshold,
		ClosingGesture:   CloseOn(DefaultClosingGesture),
	}
}

// CloseOn returns a closing-gesture setting for gesture g.
func CloseOn(g int) *int {
	return &g
}

func (p Policy) withDefaults() Policy {
	if p.MaxRFIDAttempts <= 0 {
		p.MaxRFIDAttempts = DefaultMaxAttempts
	}
	if p.MaxPINAttempts <= 0 {
		p.MaxPINAttempts = DefaultMaxAttempts
	}
	if !(p.PatternThreshold > 0 && p.PatternThreshold <= 1) {
		p.PatternThreshold = DefaultPatternThreshold
	}
	return p
}
