// Package dispatch implements the server side of the MessagePipeline
// contract: a Serve loop watching a thread's inbox for CreatePipe
// envelopes, spawning one dispatch fiber per pipeline to answer Queries
// against a method table until that pipeline's DestroyPipe arrives.
//
// It is grounded on the teacher's peers.Loop, which accepts connections and
// spawns one goroutine per accepted peer, tracked in a taskgroup.Group so
// the loop can drain outstanding peers on shutdown; Serve does the same for
// a population of pipelines using the calling scheduler's Spawn instead of a
// bare goroutine, since a dispatch fiber must cooperate with the same
// scheduler its inbox blocks against.
package dispatch

import (
	"context"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/fiber"
	"github.com/loopcore/actorbus/handler"
)

// programmerError panics to signal a contract violation by the caller,
// mirroring the panics the teacher's Peer.Start and Peer.HandlePacket raise
// for illegal call sequences.
func programmerError(msg string) { panic("dispatch: " + msg) }

// Table maps method names to handlers. A method with no entry answers with
// a StatusFailed Response.
type Table map[string]handler.Func

// Serve runs the dispatch loop against inbox: every CreatePipe envelope
// received spawns a fiber (via Scheduler.Spawn on the scheduler installed in
// ctx, so it shares the calling context's scheduler) that answers Commands
// arriving on that pipeline's consumer channel using table, until the
// pipeline's own DestroyPipe arrives or its consumer channel closes. Serve
// returns when inbox itself closes; cancelling ctx does not stop it.
func Serve(ctx context.Context, inbox *channel.Channel, table Table) error {
	for {
		raw, err := inbox.Receive(ctx)
		if err != nil {
			return err
		}
		env, ok := raw.(actorbus.Envelope)
		if !ok {
			continue
		}
		if env.Tag != actorbus.TagCreatePipe {
			// The core does not raise UnexpectedMessage; it ignores
			// envelopes it has no use for (spec §7).
			continue
		}
		p := env.CreatePipe.Pipeline
		sched, _, ok := fiber.FromContext(ctx)
		if !ok {
			programmerError("Serve requires a fiber-bearing context")
		}
		actorbus.RecordFiberSpawned()
		sched.Spawn(ctx, func(fctx context.Context) {
			serveOne(fctx, p, table)
		})
	}
}

// serveOne answers Commands on p's consumer channel using table until a
// DestroyPipe envelope or a channel error ends the pipeline.
func serveOne(ctx context.Context, p *actorbus.MessagePipeline, table Table) {
	for {
		raw, err := p.Consumer().Receive(ctx)
		if err != nil {
			return
		}
		env, ok := raw.(actorbus.Envelope)
		if !ok {
			continue
		}
		switch env.Tag {
		case actorbus.TagCommand:
			answer(ctx, p, env.Command, table)
		case actorbus.TagDestroyPipe:
			return
		}
	}
}

func answer(ctx context.Context, p *actorbus.MessagePipeline, cmd actorbus.Command, table Table) {
	fn, ok := table[cmd.Method]
	if !ok {
		p.Reply(ctx, actorbus.Response{Status: actorbus.StatusFailed, ID: cmd.ID, Data: "unknown method: " + cmd.Method})
		return
	}
	data, err := fn(ctx, cmd)
	if err != nil {
		p.Reply(ctx, actorbus.Response{Status: actorbus.StatusFailed, ID: cmd.ID, Data: err.Error()})
		return
	}
	p.Reply(ctx, actorbus.Response{Status: actorbus.StatusSuccess, ID: cmd.ID, Data: data})
}
