package types

type PINState string

const (
	PINActive  PINState = "active"
	PINBlocked PINState = "blocked"
)

func (s PINState) Valid() bool {
	return s == PINActive || s == PINBlocked
}

// GesturePIN is the short gesture sequence shared by everyone entering an area.
// A blocked PIN stays blocked until an administrator resets it.
type GesturePIN struct {
	AreaID         string   `json:"area_id"`
	Sequence       []int    `json:"sequence"`
	State          PINState `json:"state"`
	FailedAttempts int      `json:"failed_attempts"`
}
