// Program actorbus is a command-line utility for exercising and inspecting
// the actorbus messaging substrate.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"

	"github.com/loopcore/actorbus"
	"github.com/loopcore/actorbus/dispatch"
	"github.com/loopcore/actorbus/handler"
	"github.com/loopcore/actorbus/harness"
	"github.com/loopcore/actorbus/wire"
)

func main() {
	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Help: "Utilities for exercising the actorbus messaging substrate.",
		Commands: []*command.C{
			queryCommand(),
			decodeCommand(),
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

type queryFlags struct {
	Method  string        `flag:"method,default=pow,Method name to invoke"`
	Args    string        `flag:"args,default=2,Argument string to pass"`
	Timeout time.Duration `flag:"timeout,default=1s,Query timeout"`
}

// queryCommand spins up a private in-process pow server (grounded on the
// same handler used by the package's own tests) and issues a single query
// against it, so a user can watch the substrate answer a request without
// writing any Go.
func queryCommand() *command.C {
	var fs queryFlags
	return &command.C{
		Name:  "query",
		Usage: "[--method name] [--args value] [--timeout dur]",
		Help:  "Query a private in-process demo server and print the response.",
		SetFlags: func(env *command.Env, fs2 *flag.FlagSet) {
			flax.MustBind(fs2, &fs)
		},
		Run: func(env *command.Env) error {
			ctx := context.Background()
			table := dispatch.Table{
				"pow": handler.ParamResultError(func(ctx context.Context, s string) (string, error) {
					var n int
					if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
						return "", fmt.Errorf("invalid integer argument %q", s)
					}
					return fmt.Sprintf("%d", n*n), nil
				}),
			}

			pair, err := harness.NewPair(ctx, table)
			if err != nil {
				return fmt.Errorf("start demo server: %w", err)
			}
			defer pair.Stop(ctx)

			res, err := pair.Client.Query(ctx, actorbus.Command{
				ID:     pair.Client.NextID(),
				Method: fs.Method,
				Args:   fs.Args,
			}, fs.Timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%v\n", res)
			return nil
		},
	}
}

// decodeCommand parses the hex encoding of a wire-format envelope (as
// produced by wire.EncodeEnvelope) and prints its contents, for inspecting
// logged or captured traffic.
func decodeCommand() *command.C {
	return &command.C{
		Name:  "decode",
		Usage: "<hex-encoded-envelope>",
		Help:  "Decode and print a hex-encoded wire envelope.",
		Run: func(env *command.Env) error {
			if len(env.Args) != 1 {
				return env.Usagef("exactly one argument is required")
			}
			data, err := hex.DecodeString(env.Args[0])
			if err != nil {
				return fmt.Errorf("invalid hex input: %w", err)
			}
			e, err := wire.DecodeEnvelope(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%v\n", e)
			return nil
		},
	}
}
