package types

import "time"

type Factor string

const (
	FactorNone    Factor = ""
	FactorRFID    Factor = "rfid"
	FactorPIN     Factor = "pin"
	FactorPattern Factor = "pattern"
)

// AttemptRecord is one row of the authentication audit log. Unlike
// AccessRecord it is written for denied attempts too.
type AttemptRecord struct {
	ID             string
	UserID         string
	AreaID         string
	RFIDSerialHash []byte // SHA-256 of the presented serial
	Granted        bool
	Stage          string // last stage reached before the attempt ended
	Factor         Factor // factor that failed; empty on grant
	Reason         string
	AccessID       string // set on grant
	DecidedAt      time.Time
}
