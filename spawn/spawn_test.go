package spawn_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/channel"
	"github.com/loopcore/actorbus/spawn"
)

// powWorker answers method "pow" with the square of its integer argument,
// and terminates its receive loop on Shutdown. This is the S1 scenario
// worker from spec.md §8.
func powWorker(ctx context.Context, inbox *channel.Channel, _ any) {
	for {
		raw, err := inbox.Receive(ctx)
		if err != nil {
			return
		}
		env := raw.(actorbus.Envelope)
		switch env.Tag {
		case actorbus.TagCommand:
			cmd := env.Command
			n, err := strconv.Atoi(cmd.Args)
			if err != nil {
				cmd.Sender.Send(ctx, actorbus.NewResponse(actorbus.StatusFailed, cmd.ID, err.Error()))
				continue
			}
			result := strconv.Itoa(n * n)
			cmd.Sender.Send(ctx, actorbus.NewResponse(actorbus.StatusSuccess, cmd.ID, result))
		case actorbus.TagShutdown:
			return
		}
	}
}

func TestPowRoundTrip(t *testing.T) {
	defer leaktest.Check(t)()
	ctx := context.Background()

	inbox := spawn.Thread(powWorker, nil)
	client := channel.New(1)

	if err := inbox.Send(ctx, actorbus.NewCommand(client, 0, "pow", "2")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	raw, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	res := raw.(actorbus.Envelope).Response
	if res.Status != actorbus.StatusSuccess || res.ID != 0 || res.Data != "4" {
		t.Errorf("Response: got %+v, want {Success 0 4}", res)
	}

	if err := inbox.Send(ctx, actorbus.NewShutdown()); err != nil {
		t.Fatalf("Send shutdown: %v", err)
	}

	// The worker's Receive loop should exit promptly; closing its inbox
	// after a bounded wait proves it stopped consuming (a leaked worker
	// would still be blocked in Receive, which leaktest also catches).
	time.Sleep(50 * time.Millisecond)
	inbox.Close()
}

func TestSpawnerWaitsForAllThreads(t *testing.T) {
	defer leaktest.Check(t)()
	sp := spawn.NewSpawner()

	const n = 4
	inboxes := make([]*channel.Channel, n)
	for i := range n {
		inboxes[i] = sp.Spawn(func(ctx context.Context, inbox *channel.Channel, _ any) {
			for {
				if _, err := inbox.Receive(ctx); err != nil {
					return
				}
			}
		}, nil, 4)
	}

	for _, ib := range inboxes {
		ib.Close()
	}
	sp.Wait()
}
