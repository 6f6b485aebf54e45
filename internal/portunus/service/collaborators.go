package service

import "context"

// Capture is what a gesture sensor returned.  Fewer gestures than requested
// means the user performed the closing gesture; that is an outcome, not an
// error.
type Capture struct {
	Gestures []int
	Timings  []float64 // delay before each gesture; nil when not measured
}

// Complete reports whether the capture holds exactly n gestures.
func (c Capture) Complete(n int) bool {
	return len(c.Gestures) == n
}

// GestureSensor blocks until expectedLength gestures were read or the
// closing gesture ended the capture.  Timeouts are the sensor's business.
type GestureSensor interface {
	CaptureSequence(ctx context.Context, expectedLength int, closingGesture *int) (Capture, error)
}

// Actuator drives the door.  Both calls are fire-and-forget.
type Actuator interface {
	IndicateSuccess()
	OpenDoor()
}
