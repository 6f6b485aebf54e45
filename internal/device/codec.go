// Package device talks to the door's microcontroller over a serial line.
//
// Every message is a varint length prefix followed by a protobuf-encoded
// Envelope:
//
//	message Envelope {
//	  oneof body {
//	    CaptureRequest  capture_request  = 1;
//	    CaptureResponse capture_response = 2;
//	    ActuatorCommand actuator_command = 3;
//	  }
//	}
//	message CaptureRequest  { uint32 expected_length = 1; optional sint32 closing_gesture = 2; }
//	message CaptureResponse { repeated sint32 gestures = 1; repeated double timings_ms = 2;
//	                          bool has_timings = 3; string fault = 4; }
//	message ActuatorCommand { Kind kind = 1; }  // INDICATE_SUCCESS = 1, OPEN_DOOR = 2
//
// The firmware has no protobuf runtime to share a .proto with, so the
// messages are encoded by hand with protowire.
package device

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrame caps a single frame.  A full pattern response (10 gestures plus
// 10 timings) encodes to well under 200 bytes, so 4 KiB is generous.
const maxFrame = 4096

var (
	ErrFrameTooLarge = errors.New("device frame too large")
	ErrMalformed     = errors.New("malformed device message")
)

type Command int32

const (
	CommandIndicateSuccess Command = 1
	CommandOpenDoor        Command = 2
)

func (c Command) String() string {
	switch c {
	case CommandIndicateSuccess:
		return "indicate_success"
	case CommandOpenDoor:
		return "open_door"
	}
	return fmt.Sprintf("command(%d)", int32(c))
}

type CaptureRequest struct {
	ExpectedLength int
	ClosingGesture *int
}

type CaptureResponse struct {
	Gestures []int
	Timings  []float64 // nil when the sensor did not measure timings
	Fault    string    // non-empty when the sensor could not capture
}

// Envelope holds exactly one of its fields.
type Envelope struct {
	CaptureRequest  *CaptureRequest
	CaptureResponse *CaptureResponse
	Command         Command
}

const (
	fieldCaptureRequest  protowire.Number = 1
	fieldCaptureResponse protowire.Number = 2
	fieldCommand         protowire.Number = 3

	fieldExpectedLength protowire.Number = 1
	fieldClosingGesture protowire.Number = 2

	fieldGestures   protowire.Number = 1
	fieldTimings    protowire.Number = 2
	fieldHasTimings protowire.Number = 3
	fieldFault      protowire.Number = 4

	fieldKind protowire.Number = 1
)

func MarshalEnvelope(e Envelope) ([]byte, error) {
	var b []byte
	switch {
	case e.CaptureRequest != nil:
		b = protowire.AppendTag(b, fieldCaptureRequest, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCaptureRequest(nil, *e.CaptureRequest))
	case e.CaptureResponse != nil:
		b = protowire.AppendTag(b, fieldCaptureResponse, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCaptureResponse(nil, *e.CaptureResponse))
	case e.Command != 0:
		var cmd []byte
		cmd = protowire.AppendTag(cmd, fieldKind, protowire.VarintType)
		cmd = protowire.AppendVarint(cmd, uint64(e.Command))
		b = protowire.AppendTag(b, fieldCommand, protowire.BytesType)
		b = protowire.AppendBytes(b, cmd)
	default:
		return nil, fmt.Errorf("%w: empty envelope", ErrMalformed)
	}
	return b, nil
}

func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case fieldCaptureRequest:
			r, err := parseCaptureRequest(v)
			if err != nil {
				return err
			}
			e.CaptureRequest = &r
		case fieldCaptureResponse:
			r, err := parseCaptureResponse(v)
			if err != nil {
				return err
			}
			e.CaptureResponse = &r
		case fieldCommand:
			c, err := parseCommand(v)
			if err != nil {
				return err
			}
			e.Command = c
		}
		return nil
	})
	return e, err
}

func appendCaptureRequest(b []byte, r CaptureRequest) []byte {
	b = protowire.AppendTag(b, fieldExpectedLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.ExpectedLength))
	if r.ClosingGesture != nil {
		b = protowire.AppendTag(b, fieldClosingGesture, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(*r.ClosingGesture)))
	}
	return b
}

func parseCaptureRequest(b []byte) (CaptureRequest, error) {
	var r CaptureRequest
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.VarintType {
			return nil
		}
		x, n := protowire.ConsumeVarint(v)
		if n < 0 {
			return protowire.ParseError(n)
		}
		switch num {
		case fieldExpectedLength:
			r.ExpectedLength = int(x)
		case fieldClosingGesture:
			g := int(protowire.DecodeZigZag(x))
			r.ClosingGesture = &g
		}
		return nil
	})
	return r, err
}

func appendCaptureResponse(b []byte, r CaptureResponse) []byte {
	if len(r.Gestures) > 0 {
		var packed []byte
		for _, g := range r.Gestures {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(g)))
		}
		b = protowire.AppendTag(b, fieldGestures, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if r.Timings != nil {
		if len(r.Timings) > 0 {
			var packed []byte
			for _, t := range r.Timings {
				packed = protowire.AppendFixed64(packed, math.Float64bits(t))
			}
			b = protowire.AppendTag(b, fieldTimings, protowire.BytesType)
			b = protowire.AppendBytes(b, packed)
		}
		b = protowire.AppendTag(b, fieldHasTimings, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if r.Fault != "" {
		b = protowire.AppendTag(b, fieldFault, protowire.BytesType)
		b = protowire.AppendString(b, r.Fault)
	}
	return b
}

func parseCaptureResponse(b []byte) (CaptureResponse, error) {
	var (
		r          CaptureResponse
		hasTimings bool
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == fieldGestures && typ == protowire.BytesType:
			for len(v) > 0 {
				x, n := protowire.ConsumeVarint(v)
				if n < 0 {
					return protowire.ParseError(n)
				}
				r.Gestures = append(r.Gestures, int(protowire.DecodeZigZag(x)))
				v = v[n:]
			}
		case num == fieldGestures && typ == protowire.VarintType:
			// Unpacked encoding; parsers must accept both.
			x, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Gestures = append(r.Gestures, int(protowire.DecodeZigZag(x)))
		case num == fieldTimings && typ == protowire.BytesType:
			for len(v) > 0 {
				x, n := protowire.ConsumeFixed64(v)
				if n < 0 {
					return protowire.ParseError(n)
				}
				r.Timings = append(r.Timings, math.Float64frombits(x))
				v = v[n:]
			}
		case num == fieldTimings && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Timings = append(r.Timings, math.Float64frombits(x))
		case num == fieldHasTimings && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			hasTimings = protowire.DecodeBool(x)
		case num == fieldFault && typ == protowire.BytesType:
			r.Fault = string(v)
		}
		return nil
	})
	if err != nil {
		return CaptureResponse{}, err
	}
	if hasTimings && r.Timings == nil {
		r.Timings = []float64{}
	}
	if !hasTimings {
		r.Timings = nil
	}
	return r, nil
}

func parseCommand(b []byte) (Command, error) {
	var c Command
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != fieldKind || typ != protowire.VarintType {
			return nil
		}
		x, n := protowire.ConsumeVarint(v)
		if n < 0 {
			return protowire.ParseError(n)
		}
		c = Command(x)
		return nil
	})
	return c, err
}

// walk calls fn for every field in b.  For length-delimited fields v is the
// payload; for every other wire type v starts at the raw value.  Unknown
// fields are skipped by simply ignoring them in fn.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
		}
		v := b[:m]
		if typ == protowire.BytesType {
			payload, k := protowire.ConsumeBytes(v)
			if k < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(k))
			}
			v = payload
		}
		if err := fn(num, typ, v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		b = b[m:]
	}
	return nil
}

// WriteFrame writes one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrame {
		return ErrFrameTooLarge
	}
	frame := protowire.AppendVarint(make([]byte, 0, len(payload)+2), uint64(len(payload)))
	frame = append(frame, payload...)
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > maxFrame {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
