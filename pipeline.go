package actorbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/fiber"
)

// pipelineState is the lifecycle state machine of a MessagePipeline:
// New -> Open -> (Busy <-> Idle)* -> Closed. Busy/Idle are tracked
// separately (the busy field) since a pipeline may bounce between them many
// times while Open.
type pipelineState int32

const (
	pipelineNew pipelineState = iota
	pipelineOpen
	pipelineClosed
)

// DefaultPipeCapacity is the default buffer capacity given to a
// MessagePipeline's producer and consumer channels.
const DefaultPipeCapacity = 16

// A MessagePipeline pairs a producer channel (server to client) and a
// consumer channel (client to server) with a reference to the server's
// inbox (root), and implements request-id matched Query/Reply on top of
// them.
//
// The lifecycle flags (state, busy, closingSoon) are guarded by a plain
// mutex rather than the spin-lock the source used, per design note §9: the
// critical sections here are small and uncontended, and a spin-lock buys
// nothing but the risk of priority inversion.
//
// A MessagePipeline assumes a single request in flight at a time: Query
// rejects a second concurrent call rather than silently interleaving
// replies (spec §4.5, §9).
type MessagePipeline struct {
	root     *channel.Channel
	producer *channel.Channel
	consumer *channel.Channel
	name     string

	mu          sync.Mutex
	state       pipelineState
	busy        bool
	closingSoon bool
	onClose     func()
}

// NewMessagePipeline constructs a closed (State == New) pipeline whose
// consumer sends to root. Call Open to bring it into service.
func NewMessagePipeline(root *channel.Channel, name string) *MessagePipeline {
	return &MessagePipeline{
		root:     root,
		producer: channel.New(DefaultPipeCapacity),
		consumer: channel.New(DefaultPipeCapacity),
		name:     name,
	}
}

func (p *MessagePipeline) lock()   { p.mu.Lock() }
func (p *MessagePipeline) unlock() { p.mu.Unlock() }

// Name reports the pipeline's name, a hex rendering of its owning thread's
// synthetic id (see NextThreadID).
func (p *MessagePipeline) Name() string { return p.name }

// Root returns the server inbox this pipeline was opened against.
func (p *MessagePipeline) Root() *channel.Channel { return p.root }

// Producer returns the server-to-client channel. Server-side dispatch code
// (see package dispatch) replies on this channel.
func (p *MessagePipeline) Producer() *channel.Channel { return p.producer }

// Consumer returns the client-to-server channel. Server-side dispatch code
// receives commands from this channel.
func (p *MessagePipeline) Consumer() *channel.Channel { return p.consumer }

// OnClose registers a callback invoked synchronously at the end of Close, if
// one is set. Passing nil clears any existing callback.
func (p *MessagePipeline) OnClose(f func()) {
	p.lock()
	p.onClose = f
	p.unlock()
}

// Open sends CreatePipe on root and transitions the pipeline from New to
// Open. Open panics if the pipeline is not in the New state.
func (p *MessagePipeline) Open(ctx context.Context) error {
	p.lock()
	if p.state != pipelineNew {
		p.unlock()
		programmerError("pipeline %s: Open called from state other than New", p.name)
	}
	p.unlock()

	if err := p.root.Send(ctx, Envelope{Tag: TagCreatePipe, CreatePipe: CreatePipe{Pipeline: p}}); err != nil {
		return err
	}

	p.lock()
	p.state = pipelineOpen
	p.unlock()
	metrics.pipelinesOpened.Add(1)
	return nil
}

// Close sends DestroyPipe on the consumer channel, transitions the pipeline
// to Closed, and invokes the OnClose callback if one is set. Close panics if
// the pipeline is not currently Open.
func (p *MessagePipeline) Close(ctx context.Context) error {
	p.lock()
	if p.state != pipelineOpen {
		p.unlock()
		programmerError("pipeline %s: Close called from state other than Open", p.name)
	}
	p.unlock()

	err := p.consumer.Send(ctx, Envelope{Tag: TagDestroyPipe})

	p.lock()
	p.state = pipelineClosed
	cb := p.onClose
	p.unlock()

	metrics.pipelinesClosed.Add(1)
	if cb != nil {
		cb()
	}
	return err
}

// IsClosed reports whether the pipeline has been closed.
func (p *MessagePipeline) IsClosed() bool {
	p.lock()
	defer p.unlock()
	return p.state == pipelineClosed
}

// IsBusy reports whether a Query is currently in flight.
func (p *MessagePipeline) IsBusy() bool {
	p.lock()
	defer p.unlock()
	return p.busy
}

// IsClosingSoon reports the closing-soon advisory flag.
func (p *MessagePipeline) IsClosingSoon() bool {
	p.lock()
	defer p.unlock()
	return p.closingSoon
}

// SetClosingSoon sets the closing-soon advisory flag, which server dispatch
// code may consult to stop accepting new work on a pipeline it is about to
// tear down.
func (p *MessagePipeline) SetClosingSoon(v bool) {
	p.lock()
	p.closingSoon = v
	p.unlock()
}

// NextID returns the next process-wide monotonic request id, for use as a
// Command's ID field.
func (p *MessagePipeline) NextID() uint64 { return NextRequestID() }

// Query sends cmd on the consumer channel and waits for a matching Response
// on the producer channel, or until timeout elapses. A timeout of zero
// means wait indefinitely.
//
// While waiting, Query polls the producer channel non-blockingly and yields
// the calling fiber between attempts (or, outside a fiber, sleeps briefly),
// discarding any response whose ID does not match cmd.ID: the pipeline
// assumes a single request in flight, so an out-of-order or stale reply is
// simply dropped rather than buffered.
//
// Query panics if the pipeline is not Open, or if another Query is already
// in flight.
func (p *MessagePipeline) Query(ctx context.Context, cmd Command, timeout time.Duration) (Response, error) {
	p.lock()
	if p.state != pipelineOpen {
		p.unlock()
		programmerError("pipeline %s: Query called on a non-open pipeline", p.name)
	}
	if p.busy {
		p.unlock()
		programmerError("pipeline %s: Query called while another query is in flight", p.name)
	}
	p.busy = true
	p.unlock()
	defer func() {
		p.lock()
		p.busy = false
		p.unlock()
	}()

	metrics.queriesOut.Add(1)
	if err := p.consumer.Send(ctx, Envelope{Tag: TagCommand, Command: cmd}); err != nil {
		metrics.queriesFailed.Add(1)
		return Response{}, err
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if env, ok := p.producer.TryReceive(); ok {
			e := env.(Envelope)
			if e.Tag == TagResponse && e.Response.ID == cmd.ID {
				return e.Response, nil
			}
			// Non-matching or unexpected envelope: discarded per the
			// single-in-flight contract (spec §4.5, §7).
			metrics.envelopesDropped.Add(1)
			continue
		}

		if timeout > 0 && !time.Now().Before(deadline) {
			metrics.queriesTimedOut.Add(1)
			return Response{Status: StatusTimeout, ID: cmd.ID}, nil
		}

		yieldOrSleep(ctx)
	}
}

// Reply sends res on the producer channel. Reply panics if the pipeline is
// not Open.
func (p *MessagePipeline) Reply(ctx context.Context, res Response) error {
	p.lock()
	if p.state != pipelineOpen {
		p.unlock()
		programmerError("pipeline %s: Reply called on a non-open pipeline", p.name)
	}
	p.unlock()
	metrics.repliesOut.Add(1)
	return p.producer.Send(ctx, Envelope{Tag: TagResponse, Response: res})
}

func (p *MessagePipeline) String() string {
	return fmt.Sprintf("MessagePipeline(%s)", p.name)
}

// yieldOrSleep cooperates with a fiber scheduler when one is installed on
// ctx (Query's polling loop must not consume the host OS thread while a
// fiber-based server prepares its reply), and otherwise sleeps briefly so an
// ordinary goroutine caller does not spin.
func yieldOrSleep(ctx context.Context) {
	if _, _, ok := fiber.FromContext(ctx); ok {
		fiber.Yield(ctx)
		return
	}
	time.Sleep(time.Millisecond)
}
