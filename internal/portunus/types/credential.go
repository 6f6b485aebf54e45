package types

import "time"

type CredentialState string

const (
	CredentialActive   CredentialState = "active"
	CredentialExpired  CredentialState = "expired"
	CredentialBlocked  CredentialState = "blocked"
	CredentialInactive CredentialState = "inactive"
)

func (s CredentialState) Valid() bool {
	switch s {
	case CredentialActive, CredentialExpired, CredentialBlocked, CredentialInactive:
		return true
	}
	return false
}

// RFIDCredential is a proximity card bound to a single user.
//
// ExpiresOn is a calendar date: only its year, month and day are significant.
type RFIDCredential struct {
	Serial             string          `json:"serial"`
	OwnerID            string          `json:"owner_id"`
	ExpiresOn          time.Time       `json:"expires_on"`
	State              CredentialState `json:"state"`
	FailedAttempts     int             `json:"failed_attempts"`
	SuccessfulAttempts int             `json:"successful_attempts"`
	LastAccessAt       *time.Time      `json:"last_access_at,omitempty"`
}

// IsCurrent reports whether the credential may be used on the calendar date of at.
func (c RFIDCredential) IsCurrent(at time.Time) bool {
	return c.State == CredentialActive && !c.ExpiredOn(at)
}

// ExpiredOn reports whether the calendar date of at is strictly after ExpiresOn.
func (c RFIDCredential) ExpiredOn(at time.Time) bool {
	return DateOf(at).After(DateOf(c.ExpiresOn))
}

// DateOf truncates t to its calendar date (in t's own location), returned as
// midnight UTC so dates from different locations compare by day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
