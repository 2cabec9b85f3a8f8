// Command livetune-demo registers a fixed set of variables and serves them
// over the browser UI, the control channel and an optional TOML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/evan-idocoding/livetune"
	"github.com/evan-idocoding/livetune/rt/safego"
	"github.com/evan-idocoding/livetune/rt/tuning"
	"github.com/evan-idocoding/livetune/rt/tuning/tuningslog"
)

func main() {
	port := flag.Int("port", livetune.DefaultBasePort, "asset server port; the control channel uses port+1")
	file := flag.String("file", "", "TOML file to apply and watch")
	logLevel := flag.String("log-level", "info", "initial log level (debug, info, warn, error)")
	adminWrites := flag.Bool("admin-writes", false, "enable /-/tuning/set and /-/tuning/reset")
	tick := flag.Duration("tick", time.Second, "how often the demo loop reads its variables")
	flag.Parse()

	reg := tuning.New()
	level := tuningslog.New(reg, "log", "level", slog.LevelInfo)
	if err := level.SetString(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	vars := declare(reg)
	vars.Register()

	svc := livetune.NewService(livetune.ServiceSpec{
		Registry: reg,
		BasePort: *port,
		File:     *file,
		Admin:    &livetune.AdminSpec{Writes: *adminWrites},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	safego.Go(ctx, func(ctx context.Context) { readLoop(ctx, reg, *tick) }, safego.WithName("demo loop"))

	if err := svc.Run(ctx); err != nil {
		slog.Error("livetune-demo: exit", "err", err)
		os.Exit(1)
	}
}

func declare(reg *tuning.Registry) tuning.Batch {
	return tuning.Declare(
		tuning.NewFloat32(reg, "float", "name1", 1, tuning.WithMin[float32](0), tuning.WithMax[float32](1)),
		tuning.NewFloat32(reg, "float", "name2", 1, tuning.WithMax[float32](1)),
		tuning.NewFloat32(reg, "float", "name3", 1, tuning.WithMin[float32](0)),

		tuning.NewFloat64(reg, "float", "name_64_1", 1, tuning.WithMin[float64](0), tuning.WithMax[float64](1)),
		tuning.NewFloat64(reg, "float", "name_64_2", 1, tuning.WithMax[float64](1)),
		tuning.NewFloat64(reg, "float", "name_64_3", 1, tuning.WithMin[float64](0)),

		tuning.NewInt32(reg, "int", "name20", 20, tuning.WithMin[int32](0), tuning.WithMax[int32](20)),
		tuning.NewInt32(reg, "int", "name2", 20, tuning.WithMax[int32](20)),
		tuning.NewInt32(reg, "int", "name3", 20, tuning.WithMin[int32](0)),

		tuning.NewInt64(reg, "int", "name_64_20", 20, tuning.WithMin[int64](0), tuning.WithMax[int64](20)),
		tuning.NewInt64(reg, "int", "name_64_2", 20, tuning.WithMax[int64](20)),
		tuning.NewInt64(reg, "int", "name_64_3", 20, tuning.WithMin[int64](0)),

		tuning.NewBool(reg, "bool", "name1", true),
		tuning.NewBool(reg, "bool", "name2", true),
		tuning.NewBool(reg, "bool", "name3", false),
	)
}

// readLoop stands in for a frame loop: it reads a few variables every tick
// and logs them at Debug.
func readLoop(ctx context.Context, reg *tuning.Registry, every time.Duration) {
	f := tuning.NewFloat32(reg, "float", "name1", 1, tuning.WithMin[float32](0), tuning.WithMax[float32](1))
	n := tuning.NewInt32(reg, "int", "name20", 20, tuning.WithMin[int32](0), tuning.WithMax[int32](20))
	b := tuning.NewBool(reg, "bool", "name1", true)

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			slog.Debug("livetune-demo: tick", "float/name1", f.Read(), "int/name20", n.Read(), "bool/name1", b.Read())
		}
	}
}
