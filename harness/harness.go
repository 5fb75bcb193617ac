// Package harness provides shared test support for spinning up a
// request/response pair, in the manner of the teacher's peers.NewLocal: a
// server thread and a client pipeline already wired together, so individual
// tests do not each have to repeat the same channel/pipeline plumbing.
package harness

import (
	"context"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/dispatch"
	"github.com/loopcore/actorbus/spawn"
)

// Pair is a server thread and a client pipeline already Open against it.
type Pair struct {
	Root   *channel.Channel
	Client *actorbus.MessagePipeline
}

// NewPair spawns a server thread running dispatch.Serve over table and opens
// a client MessagePipeline against it.
func NewPair(ctx context.Context, table dispatch.Table) (*Pair, error) {
	root := spawn.Thread(func(ctx context.Context, inbox *channel.Channel, _ any) {
		dispatch.Serve(ctx, inbox, table)
	}, nil)

	p := actorbus.NewMessagePipeline(root, actorbus.PipelineName(ctx))
	if err := p.Open(ctx); err != nil {
		root.Close()
		return nil, err
	}
	actorbus.RegisterPipeline(p)
	return &Pair{Root: root, Client: p}, nil
}

// Stop closes the client pipeline and the server's inbox, letting the
// spawned thread's fiber scheduler wind down.
func (p *Pair) Stop(ctx context.Context) {
	actorbus.UnregisterPipeline(p.Client)
	p.Client.Close(ctx)
	p.Root.Close()
}
