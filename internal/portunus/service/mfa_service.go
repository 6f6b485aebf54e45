package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/gate/internal/observability"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/types"
)

// Stage is how far an attempt got.  Attempts only move forward; any failure
// ends the attempt in the stage it had reached.
type Stage int

const (
	StageStart Stage = iota
	StageRFIDOK
	StagePINOK
	StagePatternOK
	StageGranted
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageRFIDOK:
		return "rfid_ok"
	case StagePINOK:
		return "pin_ok"
	case StagePatternOK:
		return "pattern_ok"
	case StageGranted:
		return "granted"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// pendingFactor is the factor checked while an attempt sits in stage s.
func (s Stage) pendingFactor() types.Factor {
	switch s {
	case StageStart:
		return types.FactorRFID
	case StageRFIDOK:
		return types.FactorPIN
	case StagePINOK:
		return types.FactorPattern
	}
	return types.FactorNone
}

type MFARequest struct {
	UserID     string
	AreaID     string
	RFIDSerial string

	// ClosingGesture overrides Policy.ClosingGesture for this attempt.
	ClosingGesture *int
}

type Dependencies struct {
	Credentials   store.CredentialStore
	PINs          store.PINStore
	Patterns      store.PatternStore
	AccessRecords store.AccessRecordStore
	Attempts      store.AttemptStore // optional audit log

	Policy  Policy
	Logger  *zap.Logger            // defaults to a no-op logger
	Metrics *observability.Metrics // optional

	Clock func() time.Time // defaults to time.Now
	NewID func() string    // defaults to random UUIDs
}

// Service runs the three-factor sequence RFID → gesture PIN → gesture pattern
// for one door.  It holds no per-attempt state and does no locking of its
// own; the stores serialise access to each credential and PIN.
type Service struct {
	rfid    *RFIDValidator
	pin     *PINValidator
	pattern *PatternMatcher

	accessRecords store.AccessRecordStore
	attempts      store.AttemptStore

	policy  Policy
	logger  *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
}

func NewService(d Dependencies) *Service {
	policy := d.Policy.withDefaults()

	s := &Service{
		rfid:          NewRFIDValidator(d.Credentials, d.Metrics),
		pin:           NewPINValidator(d.PINs, policy.MaxPINAttempts, d.Metrics),
		pattern:       NewPatternMatcher(d.Patterns, policy.PatternThreshold),
		accessRecords: d.AccessRecords,
		attempts:      d.Attempts,
		policy:        policy,
		logger:        d.Logger,
		metrics:       d.Metrics,
		tracer:        otel.Tracer("portunus/gate/service"),
		now:           d.Clock,
		newID:         d.NewID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

func (s *Service) Policy() Policy { return s.policy }

func (s *Service) ValidateRFID(ctx context.Context, serial, expectedUserID string, now time.Time) error {
	return s.rfid.Validate(ctx, serial, expectedUserID, now)
}

func (s *Service) ValidatePIN(ctx context.Context, areaID string, captured []int) error {
	return s.pin.Validate(ctx, areaID, captured)
}

func (s *Service) ValidatePattern(ctx context.Context, userID string, captured []int, timings []float64) error {
	return s.pattern.Validate(ctx, userID, captured, timings)
}

// AuthenticateMFA runs one complete attempt.  On success the door has been
// opened and the returned record persisted.  On failure nothing is rolled
// back: counters and lockouts changed by earlier factors stay changed.
//
// Authorization (may this user enter this area now) is not checked here.
func (s *Service) AuthenticateMFA(
	ctx context.Context,
	req MFARequest,
	pinSensor GestureSensor,
	patternSensor GestureSensor,
	actuator Actuator,
) (types.AccessRecord, error) {
	started := time.Now()
	// One evaluation time for the whole attempt: the RFID check and the
	// access record both use it.
	now := s.now()

	req.UserID = strings.TrimSpace(req.UserID)
	req.AreaID = strings.TrimSpace(req.AreaID)
	req.RFIDSerial = strings.TrimSpace(req.RFIDSerial)
	if err := req.validate(); err != nil {
		return types.AccessRecord{}, err
	}
	if pinSensor == nil || patternSensor == nil || actuator == nil {
		return types.AccessRecord{}, &ValidationError{Detail: "gesture sensors and actuator are required"}
	}

	ctx, span := s.tracer.Start(ctx, "mfa.authenticate",
		trace.WithAttributes(attribute.String("portunus.area_id", req.AreaID)))
	defer span.End()

	rec, stage, err := s.run(ctx, req, now, pinSensor, patternSensor, actuator)
	s.finish(ctx, req, now, stage, rec, err, time.Since(started))

	span.SetAttributes(attribute.String("portunus.stage", stage.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mfa denied")
		return types.AccessRecord{}, err
	}
	span.SetStatus(codes.Ok, "")
	return rec, nil
}

func (r MFARequest) validate() error {
	switch {
	case r.UserID == "":
		return &ValidationError{Field: "user_id", Detail: "is required"}
	case r.AreaID == "":
		return &ValidationError{Field: "area_id", Detail: "is required"}
	case r.RFIDSerial == "":
		return &ValidationError{Field: "rfid_serial", Detail: "is required"}
	}
	return nil
}

func (s *Service) run(
	ctx context.Context,
	req MFARequest,
	now time.Time,
	pinSensor GestureSensor,
	patternSensor GestureSensor,
	actuator Actuator,
) (types.AccessRecord, Stage, error) {
	stage := StageStart

	err := s.factor(ctx, types.FactorRFID, func(ctx context.Context) error {
		return s.rfid.Validate(ctx, req.RFIDSerial, req.UserID, now)
	})
	if err != nil {
		return types.AccessRecord{}, stage, err
	}
	stage = StageRFIDOK

	closing := s.policy.ClosingGesture
	if req.ClosingGesture != nil {
		closing = req.ClosingGesture
	}

	err = s.factor(ctx, types.FactorPIN, func(ctx context.Context) error {
		c, err := pinSensor.CaptureSequence(ctx, PINLength, closing)
		if err != nil {
			return fmt.Errorf("capture PIN: %w", err)
		}
		if !c.Complete(PINLength) {
			return authFailure(types.FactorPIN, ReasonIncompletePINCapture,
				"incomplete PIN capture: canceled by close gesture")
		}
		return s.pin.Validate(ctx, req.AreaID, c.Gestures)
	})
	if err != nil {
		return types.AccessRecord{}, stage, err
	}
	stage = StagePINOK

	err = s.factor(ctx, types.FactorPattern, func(ctx context.Context) error {
		c, err := patternSensor.CaptureSequence(ctx, PatternLength, closing)
		if err != nil {
			return fmt.Errorf("capture pattern: %w", err)
		}
		if !c.Complete(PatternLength) {
			return authFailure(types.FactorPattern, ReasonIncompletePatternCapture,
				"incomplete pattern capture: canceled by close gesture")
		}
		return s.pattern.Validate(ctx, req.UserID, c.Gestures, c.Timings)
	})
	if err != nil {
		return types.AccessRecord{}, stage, err
	}
	stage = StagePatternOK

	actuator.IndicateSuccess()
	actuator.OpenDoor()

	rec := types.AccessRecord{
		ID:        s.newID(),
		UserID:    req.UserID,
		AreaID:    req.AreaID,
		EnteredAt: now,
	}
	if err := s.accessRecords.AddAccessRecord(ctx, rec); err != nil {
		return types.AccessRecord{}, stage, fmt.Errorf("persist access record: %w", err)
	}
	return rec, StageGranted, nil
}

func (s *Service) factor(ctx context.Context, f types.Factor, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "mfa.factor",
		trace.WithAttributes(attribute.String("portunus.factor", string(f))))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(f)+" rejected")
	}
	return err
}

// finish logs, counts and audits the outcome of an attempt.
func (s *Service) finish(
	ctx context.Context,
	req MFARequest,
	now time.Time,
	stage Stage,
	rec types.AccessRecord,
	err error,
	elapsed time.Duration,
) {
	factor := stage.pendingFactor()
	outcome := observability.OutcomeGranted
	reason := "granted"

	var authErr *AuthenticationError
	switch {
	case err == nil:
		factor = types.FactorNone
	case errors.As(err, &authErr):
		outcome = observability.OutcomeDenied
		factor = authErr.Factor
		reason = string(authErr.Reason)
	case errors.Is(err, store.ErrNotFound):
		outcome = observability.OutcomeDenied
		reason = "not_found"
	case errors.Is(err, ErrValidation):
		outcome = observability.OutcomeDenied
		reason = "invalid_input"
	default:
		outcome = observability.OutcomeError
		reason = "error"
	}

	fields := []zap.Field{
		zap.String("user_id", req.UserID),
		zap.String("area_id", req.AreaID),
		zap.String("stage", stage.String()),
		zap.Duration("elapsed", elapsed),
	}
	switch outcome {
	case observability.OutcomeGranted:
		s.logger.Info("mfa granted", append(fields, zap.String("access_id", rec.ID))...)
	case observability.OutcomeDenied:
		s.logger.Warn("mfa denied", append(fields,
			zap.String("factor", string(factor)),
			zap.String("reason", reason),
			zap.Error(err))...)
	default:
		s.logger.Error("mfa attempt failed", append(fields,
			zap.String("factor", string(factor)),
			zap.Error(err))...)
	}

	s.metrics.ObserveAttempt(outcome, string(factor), elapsed)

	serialHash := sha256.Sum256([]byte(req.RFIDSerial))
	s.recordAttempt(ctx, types.AttemptRecord{
		ID:             s.newID(),
		UserID:         req.UserID,
		AreaID:         req.AreaID,
		RFIDSerialHash: serialHash[:],
		Granted:        err == nil,
		Stage:          stage.String(),
		Factor:         factor,
		Reason:         reason,
		AccessID:       rec.ID,
		DecidedAt:      now,
	})
}

// recordAttempt appends to the audit log.  Errors are logged, not returned:
// a failed audit write must not change the decision already taken at the
// door.
func (s *Service) recordAttempt(ctx context.Context, rec types.AttemptRecord) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.RecordAttempt(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("attempt_id", rec.ID),
			zap.Error(err))
	}
}
