// Package metrics aggregates operation outcomes for a load run and turns the
// result into a report.
//
// # Collector
//
// The central [Collector] type is written to by every execution context:
//
//	collector := metrics.NewCollector()
//	rec := collector.Recorder(workerID)
//	rec.Record(metrics.Succeeded(latency, 200))
//
// Each outcome increments exactly one of the succeeded/failed counts. Only
// successful latencies enter the HDR histogram, so the histogram sample count
// always equals the succeeded count. Status codes are tabulated whenever a
// response was received, including failing ones; failures are also tabulated
// by [ErrorKind].
//
// # Thread Safety
//
// The Collector spreads writes over 32 mutex-guarded shards. Recorders pinned
// to a shard avoid the round-robin cursor entirely. Updates are commutative,
// so the merged view does not depend on arrival order.
//
// # Reporting
//
// Once all writers have joined, [Collector.Snapshot] freezes the aggregate and
// [Summarize] computes throughput, latency percentiles and the sorted status
// and error tables:
//
//	snap := collector.Snapshot()
//	report := metrics.Summarize(snap, elapsed)
//
// Summarize is pure; the latency block is nil when nothing succeeded.
package metrics
