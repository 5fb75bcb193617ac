// Package handler provides adapters that turn ordinary typed Go functions
// into a [Func] usable as a [dispatch.Table] entry, the way the teacher's
// handler package adapts functions to chirp.Handler.
//
// Parameters may be string, or a type whose pointer supports
// encoding.TextUnmarshaler. Results may be string, or any type that
// supports encoding.TextMarshaler. actorbus envelopes carry string payloads
// (Command.Args, Response.Data), so unlike the teacher's []byte-oriented
// version this package only recognizes the text encoding interfaces.
package handler

import (
	"context"
	"encoding"
	"fmt"

	"github.com/loopcore/actorbus"
)

// cmdContextKey is a context key for the command value passed to a handler.
type cmdContextKey struct{}

// ContextCommand returns the original Command passed to the handler, or the
// zero Command if ctx has none. The context passed to a handler returned by
// this package always carries one.
func ContextCommand(ctx context.Context) actorbus.Command {
	if v := ctx.Value(cmdContextKey{}); v != nil {
		return v.(actorbus.Command)
	}
	return actorbus.Command{}
}

// Func is the signature a dispatch table entry answers a Command with: a
// result payload (already text-encoded) or an error.
type Func func(context.Context, actorbus.Command) (string, error)

// ParamResultError adapts a function f that accepts parameters of type P and
// returns a result of type R and an error, to a Func.
func ParamResultError[P, R any](f func(context.Context, P) (R, error)) Func {
	return func(ctx context.Context, cmd actorbus.Command) (string, error) {
		var p P
		if err := unmarshal(cmd.Args, &p); err != nil {
			return "", err
		}
		hctx := context.WithValue(ctx, cmdContextKey{}, cmd)
		r, err := f(hctx, p)
		if err != nil {
			return "", err
		}
		return marshal(r)
	}
}

// ParamResult adapts a function f that accepts parameters of type P and
// returns a result of type R without error, to a Func.
func ParamResult[P, R any](f func(context.Context, P) R) Func {
	return func(ctx context.Context, cmd actorbus.Command) (string, error) {
		var p P
		if err := unmarshal(cmd.Args, &p); err != nil {
			return "", err
		}
		hctx := context.WithValue(ctx, cmdContextKey{}, cmd)
		return marshal(f(hctx, p))
	}
}

// ParamError adapts a function f that accepts parameters of type P and
// returns only an error, to a Func.
func ParamError[P any](f func(context.Context, P) error) Func {
	return func(ctx context.Context, cmd actorbus.Command) (string, error) {
		var p P
		if err := unmarshal(cmd.Args, &p); err != nil {
			return "", err
		}
		hctx := context.WithValue(ctx, cmdContextKey{}, cmd)
		return "", f(hctx, p)
	}
}

// ResultError adapts a function f that accepts no parameters and returns a
// result of type R and an error, to a Func.
func ResultError[R any](f func(context.Context) (R, error)) Func {
	return func(ctx context.Context, cmd actorbus.Command) (string, error) {
		hctx := context.WithValue(ctx, cmdContextKey{}, cmd)
		r, err := f(hctx)
		if err != nil {
			return "", err
		}
		return marshal(r)
	}
}

// unmarshal decodes s into v. The concrete type of v must be a pointer to a
// string, or must implement encoding.TextUnmarshaler.
func unmarshal(s string, v any) error {
	switch t := v.(type) {
	case *string:
		*t = s
	case encoding.TextUnmarshaler:
		return t.UnmarshalText([]byte(s))
	default:
		return fmt.Errorf("cannot unmarshal into %T", v)
	}
	return nil
}

// marshal encodes v into a string. The concrete type of v must be a string
// (or a pointer to one); otherwise it must implement encoding.TextMarshaler.
func marshal(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case *string:
		if t == nil {
			return "", nil
		}
		return *t, nil
	case encoding.TextMarshaler:
		bs, err := t.MarshalText()
		if err != nil {
			return "", err
		}
		return string(bs), nil
	default:
		return "", fmt.Errorf("cannot marshal %T", v)
	}
}
