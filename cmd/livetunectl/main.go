// Command livetunectl lists and changes the variables of a running livetune
// process over its control channel.
//
//	livetunectl [-addr host:port] list
//	livetunectl [-addr host:port] set <category> <name> <value>
//	livetunectl [-addr host:port] reset <category> <name>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/evan-idocoding/livetune"
	"github.com/evan-idocoding/livetune/netsync"
	"github.com/evan-idocoding/livetune/ops"
	"github.com/evan-idocoding/livetune/rt/tuning"
)

var errUsage = errors.New("usage: livetunectl [-addr host:port] list | set <category> <name> <value> | reset <category> <name>")

func main() {
	addr := flag.String("addr", "127.0.0.1:"+strconv.Itoa(livetune.DefaultBasePort+1), "control channel address")
	timeout := flag.Duration("timeout", 5*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *addr, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	c, err := netsync.Dial(ctx, "ws://"+addr+"/")
	if err != nil {
		return err
	}
	defer c.Close()

	switch args[0] {
	case "list":
		if len(args) != 1 {
			return errUsage
		}
		state, err := c.ListAll(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderTable(items(state)))
		return nil
	case "set":
		if len(args) != 4 {
			return errUsage
		}
		return write(ctx, c, args[1], args[2], func(r *tuning.Registry) error {
			return r.SetFromString(args[1], args[2], args[3])
		})
	case "reset":
		if len(args) != 3 {
			return errUsage
		}
		return write(ctx, c, args[1], args[2], func(r *tuning.Registry) error {
			r.ResetKey(args[1], args[2])
			return nil
		})
	default:
		return errUsage
	}
}

// write stages the change on a local copy of the remote variable so values
// are parsed and clamped exactly as the server would, then sends the result
// as a Delta and prints the value the server ended up with.
func write(ctx context.Context, c *netsync.Client, category, name string, change func(*tuning.Registry) error) error {
	state, err := c.ListAll(ctx)
	if err != nil {
		return err
	}
	remote, ok := state.Get(category, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", tuning.ErrNotFound, category, name)
	}

	local := tuning.New(tuning.WithRegisterOnWrite(false))
	local.Register(category, name, stored{remote})
	if err := change(local); err != nil {
		return err
	}
	t, _ := local.Lookup(category, name)
	if err := c.Delta(ctx, category, name, t); err != nil {
		return err
	}

	state, err = c.ListAll(ctx)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(items(only(state, category, name))))
	return nil
}

// stored registers an already-built Tuneable.
type stored struct{ t tuning.Tuneable }

func (s stored) MakeTuneable() tuning.Tuneable { return s.t.Clone() }

func only(state tuning.State, category, name string) tuning.State {
	t, ok := state.Get(category, name)
	if !ok {
		return tuning.State{}
	}
	return tuning.State{category: {name: t}}
}

func items(state tuning.State) []ops.TuningItem {
	r := tuning.New(tuning.WithRegisterOnWrite(false))
	for category, group := range state {
		for name, t := range group {
			r.Register(category, name, stored{t})
		}
	}
	return ops.TuningItems(r)
}
