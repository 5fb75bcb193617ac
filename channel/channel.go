// Package channel provides a bounded, closable, typed message channel whose
// blocking operations cooperate with a fiber scheduler when one is installed
// on the calling context, and fall back to ordinary OS-thread blocking
// otherwise.
package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/loopcore/actorbus/fiber"
)

// ErrClosed is returned by Send and Receive once a Channel has been closed.
// It is never cleared: once observed, a Channel must not be used further.
var ErrClosed = errors.New("channel: closed")

var nextID atomic.Uint64

// Message is the value type carried by a Channel. It is defined as an alias
// so callers can substitute the envelope type of their choosing without this
// package importing it (avoiding an import cycle with the root package).
type Message = any

// A Channel is a FIFO queue of messages with an optional bounded capacity,
// safe for concurrent use by many senders and many receivers.
//
// A capacity of 0 makes the channel a synchronous rendezvous: Send blocks
// until a corresponding Receive has taken the value. A capacity greater than
// zero makes the channel a bounded buffer: Send blocks only while the buffer
// is full.
//
// Once Close returns, every subsequent Send fails with ErrClosed, and every
// Receive either drains already-buffered messages in order or fails with
// ErrClosed once the buffer is empty.
type Channel struct {
	id       uint64
	capacity int

	mu       sync.Mutex
	buf      []Message
	closed   bool
	notEmpty waitCond
	notFull  waitCond
}

// New constructs an empty Channel with the given capacity. A capacity of 0
// requests synchronous rendezvous semantics.
func New(capacity int) *Channel {
	if capacity < 0 {
		panic("channel: negative capacity")
	}
	c := &Channel{id: nextID.Add(1), capacity: capacity}
	c.notEmpty.init(&c.mu)
	c.notFull.init(&c.mu)
	return c
}

// ID reports a process-wide stable identity for c, suitable for use as a map
// key by code (such as a named registry) that needs a comparable handle.
func (c *Channel) ID() uint64 { return c.id }

// Capacity reports the channel's configured capacity (0 for rendezvous).
func (c *Channel) Capacity() int { return c.capacity }

// Send enqueues msg on c, blocking until there is room (or, for a
// rendezvous channel, until a receiver takes the value). If ctx carries an
// installed fiber, the wait parks the fiber instead of the calling
// goroutine's OS thread.
func (c *Channel) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.capacity == 0 {
		for len(c.buf) > 0 {
			c.notFull.wait(ctx)
			if c.closed {
				return ErrClosed
			}
		}
		c.buf = append(c.buf, msg)
		c.notEmpty.signal()

		// Rendezvous: block until the receiver has taken the value.
		for len(c.buf) > 0 {
			c.notFull.wait(ctx)
			if c.closed {
				return ErrClosed
			}
		}
		return nil
	}

	for len(c.buf) >= c.capacity {
		c.notFull.wait(ctx)
		if c.closed {
			return ErrClosed
		}
	}
	c.buf = append(c.buf, msg)
	c.notEmpty.signal()
	return nil
}

// Receive removes and returns the oldest message on c, blocking until one is
// available or c is closed. If ctx carries an installed fiber, the wait
// parks the fiber instead of the calling goroutine's OS thread.
func (c *Channel) Receive(ctx context.Context) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.buf) == 0 {
		if c.closed {
			return nil, ErrClosed
		}
		c.notEmpty.wait(ctx)
	}
	msg := c.buf[0]
	c.buf = c.buf[1:]
	c.notFull.signal()
	return msg, nil
}

// TryReceive is the non-blocking variant of Receive. It reports false if the
// buffer is currently empty, whether or not the channel is closed.
func (c *Channel) TryReceive() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) == 0 {
		return nil, false
	}
	msg := c.buf[0]
	c.buf = c.buf[1:]
	c.notFull.signal()
	return msg, true
}

// Close marks c closed and wakes every fiber or goroutine currently blocked
// in Send or Receive. Close is idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.notEmpty.broadcast()
	c.notFull.broadcast()
	return nil
}

// IsClosed reports whether c has been closed.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len reports the number of messages currently buffered in c.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// waitCond is the "waitable" abstraction described by the messaging
// substrate's design notes: a condition variable with two backends live at
// once, an OS-thread backend (sync.Cond) for ordinary goroutine callers and a
// fiber backend (a FIFO of parked *fiber.Fiber values) for callers running
// under a fiber.Scheduler. Both backends are woken by signal/broadcast under
// the same lock, so a channel with mixed fiber and non-fiber waiters still
// honours a single broadcast-on-close contract.
type waitCond struct {
	mu      *sync.Mutex
	os      *sync.Cond
	waiters []*fiber.Fiber
}

func (w *waitCond) init(mu *sync.Mutex) {
	w.mu = mu
	w.os = sync.NewCond(mu)
}

func (w *waitCond) wait(ctx context.Context) {
	if _, f, ok := fiber.FromContext(ctx); ok {
		w.waiters = append(w.waiters, f)
		fiber.Wait(ctx, w.mu)
		return
	}
	w.os.Wait()
}

func (w *waitCond) signal() {
	if len(w.waiters) > 0 {
		f := w.waiters[0]
		w.waiters = w.waiters[1:]
		fiber.Resume(f)
		return
	}
	w.os.Signal()
}

func (w *waitCond) broadcast() {
	for _, f := range w.waiters {
		fiber.Resume(f)
	}
	w.waiters = nil
	w.os.Broadcast()
}
