package actorbus

import (
	"context"
	"strconv"
)

// threadNameKey is the context key under which a spawned thread's synthetic
// name is stored, in the same context-carries-identity style fiber.Fiber
// uses to make the running scheduler discoverable (fiber.FromContext).
type threadNameKey struct{}

// WithThreadName returns a context that reports name as the identity of the
// thread it is running on. spawn.Spawner.Spawn calls this once per spawned
// thread so code running on it can name pipelines after that thread without
// re-deriving an id of its own.
func WithThreadName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, threadNameKey{}, name)
}

// ThreadName reports the name bound to ctx by WithThreadName, if any.
func ThreadName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(threadNameKey{}).(string)
	return name, ok
}

// NewThreadName mints a fresh hex-rendered thread name from the process-wide
// thread-id counter (see NextThreadID).
func NewThreadName() string {
	return strconv.FormatUint(NextThreadID(), 16)
}

// PipelineName returns the name a new MessagePipeline constructed from ctx
// should use: the thread name already bound to ctx, or a freshly minted one
// if ctx carries none (spec §4.5/§6, "a hex rendering of the owning
// OS-thread id").
func PipelineName(ctx context.Context) string {
	if name, ok := ThreadName(ctx); ok {
		return name
	}
	return NewThreadName()
}
