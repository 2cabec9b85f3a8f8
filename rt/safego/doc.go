// Package safego runs background functions so that their failures are
// observable.
//
// The sync and watcher goroutines of livetune run long after their caller has
// returned. safego recovers their panics and reports returned errors to a
// *slog.Logger (slog.Default() unless WithLogger is given) or to handlers
// set with WithErrorHandler / WithPanicHandler.
//
// # Synchronous vs asynchronous
//
// Go/GoErr start a new goroutine. Run/RunErr execute in the caller's
// goroutine. Errors are reported, never returned. A nil ctx is treated as
// context.Background().
//
// # WaitGroup integration
//
//	wg.Add(1)
//	safego.GoErr(ctx, work,
//		safego.WithName("filesync"),
//		safego.WithFinally(wg.Done),
//	)
//
// # Error reporting
//
// context.Canceled and context.DeadlineExceeded are not reported by default;
// they are the normal way a background loop ends. Use
// WithReportContextCancel(true) to report them.
//
// # Panic policy
//
// RecoverAndReport (default) logs the panic with its stack at Error level.
// RepanicAfterReport reports and then panics again. RecoverOnly swallows it.
//
// # Finalizers
//
// WithFinally functions always run, in LIFO order, including on repanic. A
// panicking finalizer is reported and not rethrown.
package safego
