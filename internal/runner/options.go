package runner

import (
	"context"

	"go.uber.org/zap"

	"github.com/torosent/volley/internal/metrics"
)

// Executor performs one operation against the target and reports its
// outcome. Implementations are shared by every execution context and must be
// safe for concurrent use. Failures are reported through the outcome, never
// by panicking or aborting the run.
type Executor interface {
	Execute(ctx context.Context) metrics.Outcome
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context) metrics.Outcome

func (f ExecutorFunc) Execute(ctx context.Context) metrics.Outcome {
	return f(ctx)
}

// Mode selects how work is divided between execution contexts.
type Mode int

const (
	// ModeCount runs exactly Total operations across Concurrency contexts.
	// Contexts claim operation indices from a shared budget until it is spent.
	ModeCount Mode = iota
	// ModeSession runs Total long-lived operations (WebSocket sessions held
	// open for a fixed duration). At most Concurrency sessions are open at
	// once; contexts claim sessions from the same shared budget.
	ModeSession
)

func (m Mode) String() string {
	switch m {
	case ModeCount:
		return "count"
	case ModeSession:
		return "session"
	default:
		return "unknown"
	}
}

// Options configure the Runner.
type Options struct {
	Concurrency int                // execution contexts in count mode
	Total       int                // operations (count mode) or sessions (session mode)
	Mode        Mode               // dispatch policy
	Executor    Executor           // operation executor (required)
	Collector   *metrics.Collector // receives every outcome; created when nil
	Logger      *zap.Logger        // lifecycle logging; no-op when nil
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Total < 0 {
		o.Total = 0
	}
	if o.Collector == nil {
		o.Collector = metrics.NewCollector()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// contexts returns how many execution contexts the run spawns. It never
// exceeds Concurrency in either mode.
func (o Options) contexts() int {
	if o.Total < o.Concurrency {
		return o.Total
	}
	return o.Concurrency
}
