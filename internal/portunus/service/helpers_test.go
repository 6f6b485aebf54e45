package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store/memory"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

const (
	testUser   = "user-001"
	testArea   = "area-main"
	testSerial = "04A1B2C3D4"
)

var (
	testNow     = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	testPIN     = []int{1, 2, 3, 4}
	testPattern = []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
)

func activeCredential() types.RFIDCredential {
	return types.RFIDCredential{
		Serial:    testSerial,
		OwnerID:   testUser,
		ExpiresOn: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		State:     types.CredentialActive,
	}
}

func activePIN() types.GesturePIN {
	return types.GesturePIN{AreaID: testArea, Sequence: testPIN, State: types.PINActive}
}

func enrolledPattern() types.GesturePattern {
	return types.GesturePattern{UserID: testUser, Sequence: testPattern}
}

// fakeSensor returns a fixed capture and records how it was called.
type fakeSensor struct {
	mu         sync.Mutex
	capture    service.Capture
	err        error
	calls      int
	gotLength  int
	gotClosing *int
}

func sensorReturning(gestures []int, timings []float64) *fakeSensor {
	return &fakeSensor{capture: service.Capture{Gestures: gestures, Timings: timings}}
}

func (f *fakeSensor) CaptureSequence(_ context.Context, expectedLength int, closingGesture *int) (service.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotLength = expectedLength
	f.gotClosing = closingGesture
	return f.capture, f.err
}

func (f *fakeSensor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeActuator struct {
	mu      sync.Mutex
	events  []string
	success int
	opened  int
}

func (a *fakeActuator) IndicateSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.success++
	a.events = append(a.events, "success")
}

func (a *fakeActuator) OpenDoor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opened++
	a.events = append(a.events, "open")
}

// testEnv wires a Service to in-memory stores, returning the stores so tests
// can inspect mutations.
type testEnv struct {
	svc      *service.Service
	creds    *memory.CredentialStore
	pins     *memory.PINStore
	patterns *memory.PatternStore
	access   *memory.AccessRecordStore
	attempts *memory.AttemptStore
}

func newTestEnv(policy service.Policy) *testEnv {
	env := &testEnv{
		creds:    memory.NewCredentialStore(activeCredential()),
		pins:     memory.NewPINStore(activePIN()),
		patterns: memory.NewPatternStore(enrolledPattern()),
		access:   memory.NewAccessRecordStore(),
		attempts: memory.NewAttemptStore(),
	}
	env.svc = service.NewService(service.Dependencies{
		Credentials:   env.creds,
		PINs:          env.pins,
		Patterns:      env.patterns,
		AccessRecords: env.access,
		Attempts:      env.attempts,
		Policy:        policy,
		Clock:         func() time.Time { return testNow },
	})
	return env
}

func testRequest() service.MFARequest {
	return service.MFARequest{UserID: testUser, AreaID: testArea, RFIDSerial: testSerial}
}
