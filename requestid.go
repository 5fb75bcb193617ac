package actorbus

import "sync/atomic"

// requestID is the process-wide monotonic counter backing Command.ID.
//
// The source this substrate is descended from kept the counter as a static
// local, leaving it ambiguous whether request IDs were meant to be scoped
// per-process or per-pipeline (spec §9 Open Questions). This implementation
// resolves that ambiguity as directed: per-process monotonic, so IDs never
// collide across pipelines sharing a producer/consumer pair by coincidence
// of timing.
var requestID atomic.Uint64

// NextRequestID returns the next value of the process-wide monotonic
// request-id counter. The first value returned is 1; 0 is reserved so a
// zero-valued Command can be recognized as not-yet-assigned.
func NextRequestID() uint64 { return requestID.Add(1) }

// threadID is the process-wide monotonic counter used to name spawned
// threads (see spawn.Spawner and MessagePipeline.Name). Go exposes no
// stable, portable OS-thread identifier to user code, so a spawn-order
// counter stands in for "hex rendering of the owning OS-thread id" (spec
// §6): it is equally unique and stable for the life of the process.
var threadID atomic.Uint64

// NextThreadID returns the next value of the process-wide thread-id counter.
func NextThreadID() uint64 { return threadID.Add(1) }
