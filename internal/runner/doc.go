// Package runner is the load generation engine.
//
// A [Runner] spawns a bounded set of execution contexts, each running the
// same [Executor], and records every outcome into a metrics collector.
//
// # Count mode
//
// Exactly Options.Total operations are executed by min(Concurrency, Total)
// contexts. Each context claims operation indices from a shared atomic budget
// until it is spent, so faster contexts simply claim more of the work and no
// index is run twice.
//
// # Session mode
//
// Each operation is a long-lived WebSocket session held open for a fixed
// duration. Options.Total sessions are claimed from the same budget by at
// most Concurrency contexts, so no more than Concurrency sessions are ever
// open at once; when Total exceeds Concurrency the sessions run in waves.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Concurrency: 10,
//		Total:       1000,
//		Executor:    exec,
//		Collector:   metrics.NewCollector(),
//	})
//	res := r.Run(ctx)
//	report := metrics.Summarize(res.Snapshot, res.Elapsed)
//
// # Middleware
//
//   - [WithLogging]: log failed outcomes
package runner
