package types

import "time"

// AccessRecord is written once, after every factor of an attempt succeeded.
type AccessRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	AreaID             string    `json:"area_id"`
	EnteredAt          time.Time `json:"entered_at"`
	ValidationRecordID string    `json:"validation_record_id,omitempty"`
}
