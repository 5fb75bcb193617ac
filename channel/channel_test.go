package channel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/fortytw2/leaktest"

	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/fiber"
)

func TestBoundedCapacity(t *testing.T) {
	ctx := context.Background()
	c := channel.New(2)

	if err := c.Send(ctx, "a"); err != nil {
		t.Fatalf("Send a: %v", err)
	}
	if err := c.Send(ctx, "b"); err != nil {
		t.Fatalf("Send b: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", c.Len())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Send(ctx, "c"); err != nil {
			t.Errorf("Send c: %v", err)
		}
	}()

	select {
	case <-done:
		t.Fatal("Send c returned before room was available")
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := c.Receive(ctx); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send c never unblocked after Receive")
	}
}

func TestFIFO(t *testing.T) {
	ctx := context.Background()
	c := channel.New(8)
	for i := range 5 {
		if err := c.Send(ctx, i); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	for i := range 5 {
		got, err := c.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got != i {
			t.Errorf("Receive order: got %v, want %v", got, i)
		}
	}
}

func TestRendezvous(t *testing.T) {
	ctx := context.Background()
	c := channel.New(0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.Send(ctx, "hi"); err != nil {
			t.Errorf("Send: %v", err)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	if c.Len() != 1 {
		t.Fatalf("rendezvous should have staged the value before pickup, got Len=%d", c.Len())
	}

	got, err := c.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got != "hi" {
		t.Errorf("Receive: got %v, want hi", got)
	}
	wg.Wait()
}

func TestCloseWakesReceivers(t *testing.T) {
	defer leaktest.Check(t)()
	ctx := context.Background()
	c := channel.New(1)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Receive(ctx)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, channel.ErrClosed) {
			t.Errorf("Receive after close: got %v, want ErrClosed", err)
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatal("Receive did not wake up within 50ms of Close")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	ctx := context.Background()
	c := channel.New(1)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Send(ctx, "x"); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("Send after close: got %v, want ErrClosed", err)
	}
	if _, err := c.Receive(ctx); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("Receive on empty closed channel: got %v, want ErrClosed", err)
	}
}

func TestTryReceive(t *testing.T) {
	ctx := context.Background()
	c := channel.New(1)
	if _, ok := c.TryReceive(); ok {
		t.Fatal("TryReceive on empty channel reported ok")
	}
	if err := c.Send(ctx, 42); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, ok := c.TryReceive()
	if !ok || got != 42 {
		t.Errorf("TryReceive: got (%v, %v), want (42, true)", got, ok)
	}
}

func TestFiberSendReceive(t *testing.T) {
	defer leaktest.Check(t)()
	c := channel.New(0)

	g := taskgroup.New(nil)
	sched := fiber.New()

	received := make(chan int, 1)
	g.Go(func() error {
		sched.Start(context.Background(), func(ctx context.Context) {
			v, err := c.Receive(ctx)
			if err != nil {
				t.Errorf("fiber Receive: %v", err)
				return
			}
			received <- v.(int)
		})
		return nil
	})

	if err := c.Send(context.Background(), 7); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got != 7 {
			t.Errorf("received: got %d, want 7", got)
		}
	case <-time.After(time.Second):
		t.Fatal("fiber never received the value")
	}
	g.Wait()
}
