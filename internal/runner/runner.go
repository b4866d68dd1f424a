package runner

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/volley/internal/counter"
	"github.com/torosent/volley/internal/metrics"
)

// Result captures execution summary.
type Result struct {
	RunID    ulid.ULID
	Snapshot *metrics.Snapshot
	Elapsed  time.Duration
}

// Runner dispatches operations across a bounded set of execution contexts.
type Runner struct {
	opt Options
	id  ulid.ULID
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, id: ulid.Make()}
}

// ID identifies the run in logs and reports.
func (r *Runner) ID() ulid.ULID {
	return r.id
}

// Collector returns the collector outcomes are recorded into. It may be read
// while Run is in progress.
func (r *Runner) Collector() *metrics.Collector {
	return r.opt.Collector
}

// Run blocks until every execution context has finished, then returns the
// aggregated snapshot. Elapsed spans from just before the first context is
// started to just after the last one is joined. Cancelling ctx stops contexts
// from starting new operations; operations in flight observe the same ctx.
func (r *Runner) Run(ctx context.Context) Result {
	log := r.opt.Logger.With(zap.Stringer("run_id", r.id))
	n := r.opt.contexts()
	log.Debug("run starting",
		zap.Stringer("mode", r.opt.Mode),
		zap.Int("contexts", n),
		zap.Int("total", r.opt.Total),
	)

	start := time.Now()
	if n == 0 || r.opt.Executor == nil {
		return r.finish(log, start)
	}

	var g errgroup.Group
	budget := counter.NewBudget(int64(r.opt.Total))
	for i := 0; i < n; i++ {
		rec := r.opt.Collector.Recorder(i)
		g.Go(func() error {
			r.drain(ctx, budget, rec)
			return nil
		})
	}
	_ = g.Wait()

	return r.finish(log, start)
}

// drain claims operation indices until the budget is spent or ctx is done.
func (r *Runner) drain(ctx context.Context, budget *counter.Budget, rec metrics.Recorder) {
	for ctx.Err() == nil {
		if _, ok := budget.Claim(); !ok {
			return
		}
		rec.Record(r.opt.Executor.Execute(ctx))
	}
}

func (r *Runner) finish(log *zap.Logger, start time.Time) Result {
	elapsed := time.Since(start)
	snap := r.opt.Collector.Snapshot()
	log.Debug("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Int64("attempted", snap.Attempted),
		zap.Int64("failed", snap.Failed),
	)
	return Result{RunID: r.id, Snapshot: snap, Elapsed: elapsed}
}
