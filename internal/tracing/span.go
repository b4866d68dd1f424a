package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/runner"
)

// StartOperationSpan starts a client span for one operation.
func StartOperationSpan(ctx context.Context, tracer trace.Tracer, protocol, method, target string) (context.Context, trace.Span) {
	spanName := protocol + " " + method
	if method == "" {
		spanName = protocol + " operation"
	}
	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("volley.protocol", protocol))
	if target != "" {
		span.SetAttributes(attribute.String("url.full", target))
	}
	return ctx, span
}

// EndSpan finishes a span from an operation outcome.
func EndSpan(span trace.Span, o metrics.Outcome) {
	span.SetAttributes(attribute.Float64("volley.latency_ms", float64(o.Latency.Microseconds())/1000))
	if o.StatusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", o.StatusCode))
	}
	if o.MessagesSent > 0 || o.MessagesReceived > 0 {
		span.SetAttributes(
			attribute.Int64("volley.messages_sent", o.MessagesSent),
			attribute.Int64("volley.messages_received", o.MessagesReceived),
		)
	}
	if o.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(attribute.String("error.type", string(o.Kind)))
		span.SetStatus(codes.Error, o.Kind.Description())
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

type tracedExecutor struct {
	inner    runner.Executor
	tracer   trace.Tracer
	protocol string
	method   string
	target   string
}

// WithTracing wraps an Executor so each operation runs inside its own span.
// A nil or disabled provider returns exec unchanged.
func WithTracing(exec runner.Executor, p *Provider, protocol, method, target string) runner.Executor {
	if p == nil || p.tp == nil {
		return exec
	}
	return &tracedExecutor{
		inner:    exec,
		tracer:   p.Tracer(),
		protocol: protocol,
		method:   method,
		target:   target,
	}
}

func (t *tracedExecutor) Execute(ctx context.Context) metrics.Outcome {
	ctx, span := StartOperationSpan(ctx, t.tracer, t.protocol, t.method, t.target)
	o := t.inner.Execute(ctx)
	EndSpan(span, o)
	return o
}
