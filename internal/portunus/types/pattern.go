package types

// GesturePattern is a user's biometric gesture template.
// Timings holds the reference delay before each gesture; nil means no timing
// reference was enrolled.
type GesturePattern struct {
	UserID   string    `json:"user_id"`
	Sequence []int     `json:"sequence"`
	Timings  []float64 `json:"timings,omitempty"`
}
