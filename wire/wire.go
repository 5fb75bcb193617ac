// Package wire provides a compact binary encoding for [actorbus.Envelope]
// values, for tools (see cmd/actorbus) that need to log or replay traffic
// outside the process the envelopes originated in. The core messaging
// substrate never serializes an Envelope itself — payloads travel as Go
// values over in-process channels — so this package exists purely for
// tooling at the edges, and its framing is shaped by exactly what an
// Envelope's fields need: a tag byte, a handful of length-prefixed strings,
// a couple of small integers, and one duration/bool pair.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/creachadair/mds/value"

	"github.com/loopcore/actorbus"
)

// writer accumulates the encoded bytes of a single Envelope.
type writer struct {
	buf []byte
}

func (w *writer) byte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) bool(ok bool) { w.byte(value.Cond[byte](ok, 1, 0)) }

func (w *writer) uint32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

// vint30 appends v using a variable-width encoding of 1 to 4 bytes,
// depending on magnitude: values below 64 take one byte, below 16384 take
// two, below 4194304 take three, and the rest take four. Command and
// Response ids are usually small, so this keeps the common case compact
// without imposing a fixed-width field.
func (w *writer) vint30(v uint32) {
	size := vint30Size(v)
	x := v*4 + uint32(size-1)
	var tmp [4]byte
	for i := range size {
		tmp[i] = byte(x % 256)
		x /= 256
	}
	w.buf = append(w.buf, tmp[:size]...)
}

// string appends a vint30-length-prefixed string.
func (w *writer) string(s string) {
	w.vint30(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func vint30Size(v uint32) int {
	switch {
	case v < 1<<6:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<22:
		return 3
	default:
		return 4
	}
}

// reader consumes the encoded bytes of a single Envelope in order.
type reader struct {
	rest []byte
}

func (r *reader) byte() (byte, error) {
	if len(r.rest) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.rest[0]
	r.rest = r.rest[1:]
	return b, nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.byte()
	return b != 0, err
}

func (r *reader) uint32() (uint32, error) {
	if len(r.rest) < 4 {
		return 0, fmt.Errorf("value truncated (%d < 4 bytes): %w", len(r.rest), io.ErrUnexpectedEOF)
	}
	v := binary.BigEndian.Uint32(r.rest[:4])
	r.rest = r.rest[4:]
	return v, nil
}

func (r *reader) vint30() (uint32, error) {
	if len(r.rest) == 0 {
		return 0, io.EOF
	}
	nb := int(r.rest[0]%4) + 1
	if len(r.rest) < nb {
		return 0, io.ErrUnexpectedEOF
	}
	var w uint32
	for i := nb - 1; i >= 0; i-- {
		w = w*256 + uint32(r.rest[i])
	}
	r.rest = r.rest[nb:]
	return w >> 2, nil
}

func (r *reader) string() (string, error) {
	n, err := r.vint30()
	if err != nil {
		return "", err
	}
	if len(r.rest) < int(n) {
		return "", fmt.Errorf("value truncated (%d < %d bytes): %w", len(r.rest), n, io.ErrUnexpectedEOF)
	}
	s := string(r.rest[:n])
	r.rest = r.rest[n:]
	return s, nil
}

// EncodeEnvelope renders env's tag and payload (excluding Command.Sender,
// which is an in-process channel handle with no wire representation) into a
// self-framing byte slice.
func EncodeEnvelope(env actorbus.Envelope) []byte {
	var w writer
	w.byte(byte(env.Tag))
	switch env.Tag {
	case actorbus.TagCommand:
		w.vint30(uint32(env.Command.ID))
		w.string(env.Command.Method)
		w.string(env.Command.Args)
	case actorbus.TagResponse:
		w.byte(byte(env.Response.Status))
		w.vint30(uint32(env.Response.ID))
		w.string(env.Response.Data)
	case actorbus.TagTimeDirective:
		w.uint32(uint32(env.TimeDirective.Duration / time.Millisecond))
		w.bool(env.TimeDirective.Drop)
	case actorbus.TagFilterSpec:
		w.string(env.FilterSpec.MangledName)
		w.string(env.FilterSpec.PrettyName)
	case actorbus.TagShutdown, actorbus.TagCreatePipe, actorbus.TagDestroyPipe:
		// No payload to encode; CreatePipe's pipeline handle is a live
		// in-process reference and cannot cross the wire.
	}
	return w.buf
}

// DecodeEnvelope parses the encoding produced by [EncodeEnvelope]. The
// returned Envelope's Command.Sender is always nil: a decoded Command has no
// live channel to reply on, so decoding is only useful for inspection or
// replay tooling, not for feeding back into the messaging substrate as-is.
func DecodeEnvelope(data []byte) (actorbus.Envelope, error) {
	r := &reader{rest: data}
	tagByte, err := r.byte()
	if err != nil {
		return actorbus.Envelope{}, fmt.Errorf("read tag: %w", err)
	}
	tag := actorbus.Tag(tagByte)

	switch tag {
	case actorbus.TagCommand:
		id, err := r.vint30()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read command id: %w", err)
		}
		method, err := r.string()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read command method: %w", err)
		}
		args, err := r.string()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read command args: %w", err)
		}
		return actorbus.NewCommand(nil, uint64(id), method, args), nil

	case actorbus.TagResponse:
		statusByte, err := r.byte()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read response status: %w", err)
		}
		id, err := r.vint30()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read response id: %w", err)
		}
		data, err := r.string()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read response data: %w", err)
		}
		return actorbus.NewResponse(actorbus.Status(statusByte), uint64(id), data), nil

	case actorbus.TagTimeDirective:
		ms, err := r.uint32()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read time directive duration: %w", err)
		}
		drop, err := r.bool()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read time directive drop: %w", err)
		}
		return actorbus.NewTimeDirective(time.Duration(ms)*time.Millisecond, drop), nil

	case actorbus.TagFilterSpec:
		mangled, err := r.string()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read filter spec mangled name: %w", err)
		}
		pretty, err := r.string()
		if err != nil {
			return actorbus.Envelope{}, fmt.Errorf("read filter spec pretty name: %w", err)
		}
		return actorbus.Envelope{Tag: actorbus.TagFilterSpec, FilterSpec: actorbus.FilterSpec{MangledName: mangled, PrettyName: pretty}}, nil

	case actorbus.TagShutdown:
		return actorbus.NewShutdown(), nil
	case actorbus.TagDestroyPipe:
		return actorbus.NewDestroyPipe(), nil
	case actorbus.TagCreatePipe:
		return actorbus.Envelope{}, fmt.Errorf("wire: CreatePipe cannot be decoded: no wire representation for a pipeline handle")

	default:
		return actorbus.Envelope{}, fmt.Errorf("wire: unknown tag %d", tagByte)
	}
}
