package runner

import (
	"context"

	"go.uber.org/zap"

	"github.com/torosent/volley/internal/metrics"
)

// FailureLogger logs failed operations.
type FailureLogger interface {
	LogFailure(o metrics.Outcome)
}

// ZapFailureLogger writes one warning per failed operation.
type ZapFailureLogger struct {
	Logger *zap.Logger
}

func (z ZapFailureLogger) LogFailure(o metrics.Outcome) {
	fields := []zap.Field{
		zap.String("kind", string(o.Kind)),
		zap.Duration("latency", o.Latency),
	}
	if o.StatusCode > 0 {
		fields = append(fields, zap.Int("status", o.StatusCode))
	}
	z.Logger.Warn("operation failed", fields...)
}

type loggingExecutor struct {
	inner  Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failures.
func WithLogging(exec Executor, logger FailureLogger) Executor {
	if logger == nil {
		return exec
	}
	return &loggingExecutor{inner: exec, logger: logger}
}

func (l *loggingExecutor) Execute(ctx context.Context) metrics.Outcome {
	o := l.inner.Execute(ctx)
	if !o.Success {
		l.logger.LogFailure(o)
	}
	return o
}
