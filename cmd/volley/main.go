package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/logging"
	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/output"
	"github.com/torosent/volley/internal/runner"
	"github.com/torosent/volley/internal/threshold"
	"github.com/torosent/volley/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

const (
	exitOK        = 0
	exitConfig    = 1
	exitThreshold = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}

	logger := logging.New(stderr, cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	exec, err := newExecutor(cfg, provider)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}
	op := cfg.Operation()
	exec = tracing.WithTracing(exec, provider, string(op.Protocol), op.Method, op.URL)
	if cfg.LogErrors {
		exec = runner.WithLogging(exec, runner.ZapFailureLogger{Logger: logger})
	}

	opts := runnerOptions(cfg)
	opts.Executor = exec
	opts.Logger = logger
	r := runner.New(opts)

	info := output.NewRunInfo(cfg, r.ID().String())
	scheme := output.SchemeFor(stdout, cfg.NoColor)
	if cfg.Output == config.OutputText {
		output.PrintBanner(stdout, info, scheme)
	}

	var progress *output.ProgressReporter
	if cfg.Progress {
		progress = output.NewProgressReporter(r.Collector(), int64(opts.Total), progressInterval, stderr)
		progress.Start()
	}
	result := r.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if ctx.Err() != nil {
		logger.Warn("run interrupted; reporting partial results")
	}

	report := metrics.Summarize(result.Snapshot, result.Elapsed)
	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	switch cfg.Output {
	case config.OutputJSON:
		err = output.PrintJSONReport(stdout, output.NewDocument(info, report, results))
	case config.OutputYAML:
		err = output.PrintYAMLReport(stdout, output.NewDocument(info, report, results))
	default:
		output.PrintReport(stdout, report, results, scheme)
	}
	if err != nil {
		logger.Error("writing report failed", zap.Error(err))
	}

	if !threshold.AllPassed(results) {
		return exitThreshold
	}
	return exitOK
}

// runnerOptions maps the configuration onto a dispatch policy.
func runnerOptions(cfg *config.Config) runner.Options {
	if cfg.Mode() == config.ModeDuration {
		return runner.Options{
			Concurrency: cfg.Concurrency,
			Total:       cfg.Sessions(),
			Mode:        runner.ModeSession,
		}
	}
	return runner.Options{
		Concurrency: cfg.Concurrency,
		Total:       cfg.Requests,
		Mode:        runner.ModeCount,
	}
}
