// Package actorbus implements an in-process actor-style messaging substrate
// used to build RPC-like request/response interactions between
// cooperatively scheduled tasks running on OS threads.
//
// # Envelopes and channels
//
// The unit of communication is an [Envelope], a tagged union carrying one of
// [Command], [Response], [TimeDirective], [FilterSpec], or a bare Shutdown,
// CreatePipe, or DestroyPipe signal. Envelopes travel over
// [channel.Channel] values: bounded, closable, FIFO queues whose blocking
// Send and Receive operations park a fiber instead of an OS thread when a
// [fiber.Scheduler] is installed on the calling context.
//
// # Threads and schedulers
//
// The [spawn] package equips a freshly started OS thread (a goroutine, in
// this realization) with its own [fiber.Scheduler] and inbox channel,
// running the caller's entry point as that scheduler's root fiber:
//
//	sp := spawn.NewSpawner()
//	inbox := sp.Spawn(func(ctx context.Context, inbox *channel.Channel, args any) {
//	    for {
//	        env, err := inbox.Receive(ctx)
//	        if err != nil {
//	            return // channel closed
//	        }
//	        ... dispatch env.(actorbus.Envelope) ...
//	    }
//	}, nil, spawn.DefaultInboxCapacity)
//
// # Discovery
//
// The [registry] package maps human-readable names to channel handles so
// unrelated parts of a program can find each other's inbox without passing
// references explicitly:
//
//	registry.Register("worker.pow", inbox)
//	ch := registry.Locate("worker.pow")
//	if ch == nil {
//	    log.Fatal("worker.pow not registered")
//	}
//
// # Request/response pipelines
//
// A [MessagePipeline] pairs a producer and a consumer channel with a
// server's inbox and implements request-id-matched Query/Reply:
//
//	p := actorbus.NewMessagePipeline(serverInbox, name)
//	if err := p.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Query(ctx, actorbus.Command{
//	    ID: p.NextID(), Method: "pow", Args: "2",
//	}, 100*time.Millisecond)
//
// A server learns about a new pipeline by receiving a CreatePipe envelope on
// its inbox; the [dispatch] package provides the fiber-spawning half of that
// contract.
//
// # Metrics
//
// Process-wide activity counters are exposed through an [expvar.Map]; see
// [Metrics].
package actorbus
