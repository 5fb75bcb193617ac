package actorbus

import (
	"context"
	"sync"
)

// pipelineRegistry is a process-wide map from pipeline name to pipeline
// instance, guarded by a lock independent of the named channel registry
// (package registry). It mirrors the correlation-map idiom of the teacher's
// Peer (ocall/icall guarded by a single mutex), generalized here to a public
// register/locate/unregister surface instead of an internal call table.
type pipelineRegistry struct {
	mu     sync.Mutex
	byName map[string]*MessagePipeline
}

var defaultPipelineRegistry = &pipelineRegistry{byName: make(map[string]*MessagePipeline)}

// RegisterPipeline adds p to the process-wide pipeline registry under
// p.Name(). It reports false, without modifying the registry, if that name
// is already registered or if p is closed.
func RegisterPipeline(p *MessagePipeline) bool {
	return defaultPipelineRegistry.register(p)
}

// LocatePipeline returns the pipeline registered under name, or nil if none.
func LocatePipeline(name string) *MessagePipeline {
	return defaultPipelineRegistry.locate(name)
}

// LocateCurrentPipeline is the no-argument form of LocatePipeline: it
// resolves the name from the thread bound to ctx (see WithThreadName) and
// looks that up instead of a caller-supplied name. It returns nil if ctx
// carries no thread name or no pipeline is registered under it.
func LocateCurrentPipeline(ctx context.Context) *MessagePipeline {
	name, ok := ThreadName(ctx)
	if !ok {
		return nil
	}
	return defaultPipelineRegistry.locate(name)
}

// UnregisterPipeline removes p from the process-wide pipeline registry and
// reports whether it was present.
func UnregisterPipeline(p *MessagePipeline) bool {
	return defaultPipelineRegistry.unregister(p.Name())
}

func (r *pipelineRegistry) register(p *MessagePipeline) bool {
	if p.IsClosed() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[p.Name()]; exists {
		return false
	}
	r.byName[p.Name()] = p
	return true
}

func (r *pipelineRegistry) locate(name string) *MessagePipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

func (r *pipelineRegistry) unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; !exists {
		return false
	}
	delete(r.byName, name)
	return true
}
