package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/gate/internal/portunus/service"
)

// ErrLinkBroken is returned after an exchange was interrupted mid-frame; the
// stream can no longer be trusted and the link must be reopened.
var ErrLinkBroken = errors.New("device link broken")

// deadliner is implemented by *os.File (for pollable ttys) and net.Conn.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// Link is the gate's end of the serial line.  It acts as both gesture
// sensor and actuator.  Exchanges are serialised; the link is safe for
// concurrent use but the device handles one request at a time.
type Link struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	dl     deadliner
	broken bool
	logger *zap.Logger
}

var (
	_ service.GestureSensor = (*Link)(nil)
	_ service.Actuator      = (*Link)(nil)
)

func NewLink(rw io.ReadWriter, logger *zap.Logger) *Link {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Link{
		w:      rw,
		r:      bufio.NewReader(rw),
		logger: logger,
	}
	if d, ok := rw.(deadliner); ok {
		l.dl = d
	}
	return l
}

// CaptureSequence asks the device for expectedLength gestures and blocks
// until it answers.  Cancelling ctx unblocks the read only if the underlying
// stream supports deadlines.
func (l *Link) CaptureSequence(ctx context.Context, expectedLength int, closingGesture *int) (service.Capture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.broken {
		return service.Capture{}, ErrLinkBroken
	}
	if err := ctx.Err(); err != nil {
		return service.Capture{}, err
	}

	stop := l.watch(ctx)
	defer stop()

	req := Envelope{CaptureRequest: &CaptureRequest{
		ExpectedLength: expectedLength,
		ClosingGesture: closingGesture,
	}}
	if err := l.send(req); err != nil {
		return service.Capture{}, l.fail(ctx, "send capture request", err)
	}

	for {
		frame, err := ReadFrame(l.r)
		if err != nil {
			return service.Capture{}, l.fail(ctx, "read capture response", err)
		}
		env, err := UnmarshalEnvelope(frame)
		if err != nil {
			return service.Capture{}, fmt.Errorf("decode capture response: %w", err)
		}
		if env.CaptureResponse == nil {
			l.logger.Debug("ignoring unexpected device frame")
			continue
		}

		resp := env.CaptureResponse
		if resp.Fault != "" {
			return service.Capture{}, fmt.Errorf("gesture sensor fault: %s", resp.Fault)
		}
		if len(resp.Gestures) > expectedLength {
			return service.Capture{}, fmt.Errorf("%w: %d gestures for a capture of %d",
				ErrMalformed, len(resp.Gestures), expectedLength)
		}
		return service.Capture{Gestures: resp.Gestures, Timings: resp.Timings}, nil
	}
}

func (l *Link) IndicateSuccess() { l.command(CommandIndicateSuccess) }

func (l *Link) OpenDoor() { l.command(CommandOpenDoor) }

// command is fire-and-forget: a lost command is logged and otherwise
// ignored.
func (l *Link) command(c Command) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.broken {
		l.logger.Error("actuator command dropped", zap.Stringer("command", c), zap.Error(ErrLinkBroken))
		return
	}
	if err := l.send(Envelope{Command: c}); err != nil {
		l.broken = true
		l.logger.Error("actuator command failed", zap.Stringer("command", c), zap.Error(err))
	}
}

func (l *Link) send(e Envelope) error {
	payload, err := MarshalEnvelope(e)
	if err != nil {
		return err
	}
	return WriteFrame(l.w, payload)
}

// watch maps ctx's deadline and cancellation onto the stream's deadline.
func (l *Link) watch(ctx context.Context) func() {
	if l.dl == nil {
		return func() {}
	}
	if d, ok := ctx.Deadline(); ok {
		_ = l.dl.SetDeadline(d)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = l.dl.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = l.dl.SetDeadline(time.Time{})
	}
}

func (l *Link) fail(ctx context.Context, op string, err error) error {
	l.broken = true
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	// The stream deadline can fire a moment before ctx's own timer.
	if _, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", op, err)
}
