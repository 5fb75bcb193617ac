// Package fiber implements a cooperative, single-OS-thread scheduler for
// lightweight fibers.
//
// A [Scheduler] multiplexes any number of fibers under the control of the
// single goroutine that calls [Scheduler.Start]; that goroutine plays the role
// of the "host OS thread" described by the messaging substrate this package
// supports. Each fiber runs on a goroutine of its own, but only while that
// scheduler's loop has handed it the turn, so at most one fiber of a
// scheduler runs at a time. Fibers never migrate between schedulers.
//
// Fibers communicate their scheduling state through a Go context.Context
// rather than through goroutine-local storage. Code that wants to discover
// whether it is running as a fiber, and if so suspend cooperatively, calls
// [FromContext] to recover the scheduler and fiber installed by [Scheduler.Start]
// or [Scheduler.Spawn].
package fiber

import (
	"context"
	"slices"
	"sync"
)

// State describes the scheduling state of a Fiber.
type State int32

const (
	Ready State = iota
	Running
	Waiting
	Finished
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// A Fiber is a cooperatively scheduled execution context. Fibers are never
// constructed directly; obtain one from [Scheduler.Start], [Scheduler.Spawn],
// or [FromContext].
type Fiber struct {
	id      uint64
	sched   *Scheduler
	resume  chan struct{} // scheduler -> fiber: it is now this fiber's turn
	yielded chan struct{} // fiber -> scheduler: this fiber has given up its turn

	state State // guarded by sched.mu
}

// ID reports a scheduler-scoped identifier for f, stable for its lifetime.
func (f *Fiber) ID() uint64 { return f.id }

// A Scheduler runs fibers one at a time in round-robin order, driven by the
// single goroutine that calls [Scheduler.Start]. The zero value is not ready
// for use; construct one with [New].
type Scheduler struct {
	mu     sync.Mutex
	idle   *sync.Cond // signaled when the ready queue gains work
	ready  []*Fiber
	live   int // fibers that are Ready, Running, or Waiting
	nextID uint64
}

// New constructs an unstarted Scheduler.
func New() *Scheduler {
	s := &Scheduler{}
	s.idle = sync.NewCond(&s.mu)
	return s
}

type ctxKey struct{}

type installed struct {
	sched *Scheduler
	fiber *Fiber
}

// FromContext reports the Scheduler and Fiber installed in ctx by
// [Scheduler.Start] or [Scheduler.Spawn], if any.
func FromContext(ctx context.Context) (*Scheduler, *Fiber, bool) {
	v, ok := ctx.Value(ctxKey{}).(installed)
	if !ok {
		return nil, nil, false
	}
	return v.sched, v.fiber, true
}

func withFiber(ctx context.Context, s *Scheduler, f *Fiber) context.Context {
	return context.WithValue(ctx, ctxKey{}, installed{sched: s, fiber: f})
}

func (s *Scheduler) newFiber() *Fiber {
	s.nextID++
	return &Fiber{
		id:      s.nextID,
		sched:   s,
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
		state:   Ready,
	}
}

// Start consumes the calling goroutine as the host thread for s, running fn
// as the scheduler's root fiber. Start returns once the root fiber and every
// fiber transitively spawned from it (via [Scheduler.Spawn] called with a
// context derived from ctx) have finished.
//
// Start must be called at most once per Scheduler.
func (s *Scheduler) Start(ctx context.Context, fn func(context.Context)) {
	root := s.newFiber()
	s.mu.Lock()
	s.live++
	s.ready = append(s.ready, root)
	s.mu.Unlock()

	go s.runFiber(ctx, root, fn)
	s.loop()
}

// Spawn enqueues a new fiber on s's ready queue and returns immediately. fn
// runs the next time the scheduler's loop schedules the new fiber. The
// context passed to fn carries the new fiber's identity, derived from ctx.
//
// Spawn is safe to call from any goroutine, including fibers running on a
// different Scheduler, so that cross-thread code (e.g. a channel waking a
// consumer) can hand work to a scheduler it does not own.
func (s *Scheduler) Spawn(ctx context.Context, fn func(context.Context)) {
	s.mu.Lock()
	f := s.newFiber()
	s.live++
	s.ready = append(s.ready, f)
	s.idle.Signal()
	s.mu.Unlock()

	go s.runFiber(ctx, f, fn)
}

func (s *Scheduler) runFiber(ctx context.Context, f *Fiber, fn func(context.Context)) {
	<-f.resume
	fn(withFiber(ctx, s, f))

	s.mu.Lock()
	f.state = Finished
	s.live--
	s.mu.Unlock()

	f.yielded <- struct{}{}
}

// loop is the scheduler's run loop. It occupies the calling goroutine
// (the "host OS thread") until every fiber has finished. When the ready
// queue is empty but fibers remain parked in Waiting, it blocks on idle
// rather than spinning, so a cross-thread wakeup (via [Resume]) is required
// to make further progress.
func (s *Scheduler) loop() {
	s.mu.Lock()
	for {
		for len(s.ready) == 0 {
			if s.live == 0 {
				s.mu.Unlock()
				return
			}
			s.idle.Wait()
		}
		f := s.ready[0]
		s.ready = s.ready[1:]
		f.state = Running
		s.mu.Unlock()

		f.resume <- struct{}{}
		<-f.yielded

		s.mu.Lock()
		if f.state == Ready && !slices.Contains(s.ready, f) {
			s.ready = append(s.ready, f)
		}
		// Waiting fibers are re-enqueued by Resume, which may already have
		// run (hence the Contains check); Finished fibers already
		// decremented live in runFiber.
	}
}

// Yield cooperatively suspends the calling fiber, returning it to the back
// of its scheduler's ready queue, and resumes when its turn comes back
// around. Yield is a no-op if ctx carries no fiber.
func Yield(ctx context.Context) {
	_, f, ok := FromContext(ctx)
	if !ok {
		return
	}
	s := f.sched
	s.mu.Lock()
	f.state = Ready
	s.mu.Unlock()

	f.yielded <- struct{}{}
	<-f.resume
}

// Wait suspends the calling fiber and releases mu while suspended,
// reacquiring it before returning, in the manner of [sync.Cond.Wait]. The
// fiber does not become runnable again until some goroutine calls [Resume]
// on it. Wait panics if ctx carries no fiber; callers that may run outside a
// fiber must check with [FromContext] first.
func Wait(ctx context.Context, mu sync.Locker) {
	_, f, ok := FromContext(ctx)
	if !ok {
		panic("fiber: Wait called without an installed fiber")
	}
	s := f.sched

	s.mu.Lock()
	f.state = Waiting
	s.mu.Unlock()

	mu.Unlock()
	f.yielded <- struct{}{}
	<-f.resume
	mu.Lock()
}

// Resume moves a fiber parked by [Wait] back onto its scheduler's ready
// queue. It is safe to call from any goroutine, including one belonging to a
// different scheduler, so that a channel operation on one thread can wake a
// fiber blocked on another thread's scheduler.
//
// Resume is idempotent only in the sense that resuming an already-Ready or
// Running fiber is a caller error the package does not attempt to detect;
// callers (the channel package's wait lists) are responsible for tracking
// which fibers are currently parked.
func Resume(f *Fiber) {
	s := f.sched
	s.mu.Lock()
	f.state = Ready
	s.ready = append(s.ready, f)
	s.idle.Signal()
	s.mu.Unlock()
}
