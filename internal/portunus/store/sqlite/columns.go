package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func encodeInts(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeInts(s string) ([]int, error) {
	var v []int
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode gesture sequence: %w", err)
	}
	return v, nil
}

// encodeTimings maps a nil slice to NULL so "no timing reference" survives a
// round trip.
func encodeTimings(v []float64) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeTimings(s sql.NullString) ([]float64, error) {
	if !s.Valid {
		return nil, nil
	}
	v := []float64{}
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, fmt.Errorf("decode gesture timings: %w", err)
	}
	return v, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMs(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}
