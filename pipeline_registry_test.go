package actorbus_test

import (
	"context"
	"testing"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/channel"
)

// TestPipelineRegistryUniqueness mirrors registry.TestRegisterUniqueness
// (spec scenario S5) for the independent pipeline registry (spec §4.6).
func TestPipelineRegistryUniqueness(t *testing.T) {
	name := actorbus.NewThreadName()
	p1 := actorbus.NewMessagePipeline(nil, name)
	p2 := actorbus.NewMessagePipeline(nil, name)

	if !actorbus.RegisterPipeline(p1) {
		t.Fatal("first RegisterPipeline(p1) should succeed")
	}
	if actorbus.RegisterPipeline(p2) {
		t.Fatal("second RegisterPipeline(p2) should fail: name already taken")
	}
	if got := actorbus.LocatePipeline(name); got != p1 {
		t.Errorf("LocatePipeline(%s): got %v, want p1", name, got)
	}
	if !actorbus.UnregisterPipeline(p1) {
		t.Fatal("UnregisterPipeline(p1) should report true")
	}
	if got := actorbus.LocatePipeline(name); got != nil {
		t.Errorf("LocatePipeline(%s) after unregister: got %v, want nil", name, got)
	}
}

func TestRegisterPipelineRejectsClosed(t *testing.T) {
	ctx := context.Background()
	root := channel.New(1)
	p := actorbus.NewMessagePipeline(root, actorbus.NewThreadName())
	if err := p.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if actorbus.RegisterPipeline(p) {
		t.Error("RegisterPipeline should reject an already-closed pipeline")
	}
}

// TestLocateCurrentPipeline exercises the no-name form of LocatePipeline: it
// resolves the current thread's pipeline from the thread name bound to ctx.
func TestLocateCurrentPipeline(t *testing.T) {
	name := actorbus.NewThreadName()
	p := actorbus.NewMessagePipeline(nil, name)
	if !actorbus.RegisterPipeline(p) {
		t.Fatal("RegisterPipeline(p) should succeed")
	}
	defer actorbus.UnregisterPipeline(p)

	ctx := actorbus.WithThreadName(context.Background(), name)
	if got := actorbus.LocateCurrentPipeline(ctx); got != p {
		t.Errorf("LocateCurrentPipeline: got %v, want p", got)
	}
	if got := actorbus.LocateCurrentPipeline(context.Background()); got != nil {
		t.Errorf("LocateCurrentPipeline with no bound thread name: got %v, want nil", got)
	}
}
