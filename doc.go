// Package livetune hosts a runtime-tunable variable registry behind two
// channels: a TOML file that is re-applied when it changes, and a WebSocket
// control channel that external tools use to list and change variables.
//
// The main entry points are:
//   - NewService: assemble a runnable, shutdownable Service around a
//     tuning.Registry (asset server, control channel, optional file watcher,
//     optional admin endpoints).
//   - NewAdmin: assemble the admin subtree as an http.Handler.
//
// Lower-level building blocks live in subpackages:
//
//   - rt/tuning: the Registry and typed declarations
//   - rt/tuning/tuningslog: a slog.Leveler backed by a tunable
//   - filesync: TOML file apply + watch
//   - netsync: control channel protocol, server handler and client
//   - webui: embedded browser UI
//   - ops: admin HTTP handlers
//   - httpx: HTTP middleware
//   - rt/safego: goroutine runner with panic/error reporting
//
// # Quick start
//
//	reg := tuning.New()
//	gravity := tuning.NewFloat32(reg, "physics", "gravity", 9.8,
//		tuning.WithMin[float32](0), tuning.WithMax[float32](20))
//	gravity.Register()
//
//	svc := livetune.NewService(livetune.ServiceSpec{
//		Registry: reg,
//		File:     "tune.toml",
//	})
//	go func() { _ = svc.Run(context.Background()) }()
//
//	for {
//		step(gravity.Read())
//	}
//
// # Ports
//
// The asset server listens on ":BasePort" (default 4450) and serves the
// browser UI. The control channel listens on "127.0.0.1:BasePort+1"; the UI
// connects to it from the browser. HTTPAddr and ControlAddr override either
// address. ReusePort binds both with SO_REUSEPORT so a new process can start
// on the same ports before the old one shuts down.
//
// # Admin
//
// Admin endpoints are off unless ServiceSpec.Admin is set. They mount under
// "/-/" on the asset server. Reads are always on; /tuning/set and
// /tuning/reset need AdminSpec.Writes.
//
// # Lifecycle
//
// Start applies File (a missing or malformed file fails Start), then binds both
// servers. Shutdown closes control sessions, shuts both servers down in
// parallel, stops the file watcher and runs OnShutdown hooks, bounded by
// ShutdownTimeout.
package livetune
