package registry_test

import (
	"testing"

	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/registry"
)

func TestRegisterUniqueness(t *testing.T) {
	r := registry.New()
	ch1 := channel.New(1)
	ch2 := channel.New(1)

	if !r.Register("n", ch1) {
		t.Fatal("first Register(n, ch1) should succeed")
	}
	if r.Register("n", ch2) {
		t.Fatal("second Register(n, ch2) should fail: name already taken")
	}
	if got := r.Locate("n"); got != ch1 {
		t.Errorf("Locate(n): got %v, want ch1", got)
	}
	if !r.Unregister("n") {
		t.Fatal("Unregister(n) should report true")
	}
	if got := r.Locate("n"); got != nil {
		t.Errorf("Locate(n) after unregister: got %v, want nil", got)
	}
}

func TestRegisterRejectsClosedChannel(t *testing.T) {
	r := registry.New()
	ch := channel.New(1)
	ch.Close()
	if r.Register("x", ch) {
		t.Error("Register should reject an already-closed channel")
	}
}

func TestBijection(t *testing.T) {
	r := registry.New()
	ch := channel.New(1)

	r.Register("a", ch)
	r.Register("b", ch)

	names := map[string]bool{}
	for _, n := range r.NamesOf(ch) {
		names[n] = true
	}
	if !names["a"] || !names["b"] {
		t.Fatalf("NamesOf(ch): got %v, want {a, b}", names)
	}
	for _, n := range []string{"a", "b"} {
		if r.Locate(n) != ch {
			t.Errorf("Locate(%s): forward map inconsistent with reverse map", n)
		}
	}

	r.Unregister("a")
	names = map[string]bool{}
	for _, n := range r.NamesOf(ch) {
		names[n] = true
	}
	if names["a"] || !names["b"] {
		t.Fatalf("NamesOf(ch) after unregistering a: got %v, want {b}", names)
	}
}

func TestUnregisterUnknown(t *testing.T) {
	r := registry.New()
	if r.Unregister("nope") {
		t.Error("Unregister of an unknown name should report false")
	}
}
