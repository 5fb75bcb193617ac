// Package spawn implements the thread spawner: it starts an OS thread (a
// goroutine, tracked so the caller can wait for it), installs a fresh fiber
// scheduler on it, allocates its inbox channel, and runs the caller's entry
// point as the scheduler's root fiber.
//
// It is grounded on the teacher's peers.Loop and peers.Local, which use a
// taskgroup.Group to track a population of concurrently running peers and
// drain them on shutdown; Spawner does the same for a population of
// scheduler-bearing threads.
package spawn

import (
	"context"

	"github.com/creachadair/taskgroup"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/fiber"
)

// DefaultInboxCapacity is the default capacity given to a spawned thread's
// inbox channel, per spec §4.3.
const DefaultInboxCapacity = 256

// Entry is the signature a spawned thread's root fiber runs. ctx carries the
// installed fiber.Scheduler and fiber.Fiber (see fiber.FromContext), so
// blocking calls made through inbox cooperate with the scheduler rather than
// the host OS thread. args must not alias mutable state owned by the
// spawning thread; the type system cannot enforce this in general, so it is
// a caller discipline the same way the source spec leaves it (spec §4.3).
type Entry func(ctx context.Context, inbox *channel.Channel, args any)

// A Spawner tracks a population of spawned threads so a caller can Wait for
// all of them to finish, in the manner of peers.Loop.
type Spawner struct {
	tasks *taskgroup.Group
}

// NewSpawner constructs an empty Spawner.
func NewSpawner() *Spawner {
	return &Spawner{tasks: taskgroup.New(nil)}
}

// Spawn starts a new OS thread running entry as the root fiber of a fresh
// fiber.Scheduler, with an inbox of the given capacity (DefaultInboxCapacity
// is used if capacity <= 0). It returns the inbox handle immediately; entry
// runs concurrently.
func (s *Spawner) Spawn(entry Entry, args any, capacity int) *channel.Channel {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	inbox := channel.New(capacity)
	name := actorbus.NewThreadName()

	s.tasks.Go(func() error {
		sched := fiber.New()
		actorbus.RecordFiberSpawned()
		sched.Start(context.Background(), func(ctx context.Context) {
			ctx = actorbus.WithThreadName(ctx, name)
			entry(ctx, inbox, args)
		})
		return nil
	})

	return inbox
}

// Wait blocks until every thread spawned by s has finished.
func (s *Spawner) Wait() { s.tasks.Wait() }

// Thread is a convenience wrapper around a throwaway Spawner for callers
// that only need to fire-and-forget a single thread without tracking its
// completion. It mirrors the source's bare spawn_thread(entry, args)
// signature.
func Thread(entry Entry, args any) *channel.Channel {
	return NewSpawner().Spawn(entry, args, DefaultInboxCapacity)
}
