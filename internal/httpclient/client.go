package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/tracing"
)

// RequestIDHeader carries a unique identifier per request when enabled.
const RequestIDHeader = "X-Request-Id"

// RequestBuilder turns the immutable operation template into a new
// *http.Request for every call.
type RequestBuilder struct {
	method    string
	target    string
	headers   http.Header
	body      BodySource
	requestID bool
}

func NewRequestBuilder(op config.Operation) (*RequestBuilder, error) {
	target := strings.TrimSpace(op.URL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q for HTTP", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}

	method := strings.ToUpper(strings.TrimSpace(op.Method))
	if method == "" {
		method = http.MethodGet
	}

	bodySource, err := NewBodySource(op.Body)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	for key, value := range op.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		method:    method,
		target:    u.String(),
		headers:   headers,
		body:      bodySource,
		requestID: op.RequestID,
	}, nil
}

func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := b.body.NewReader()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, b.method, b.target, reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = b.headers.Clone()
	if b.requestID {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if length, ok := b.body.ContentLength(); ok {
		req.ContentLength = length
	}
	req.GetBody = b.body.NewReader
	return req, nil
}

// NewClient returns a client tuned for many concurrent requests against a
// single host. A zero timeout disables the per-request deadline.
func NewClient(timeout time.Duration, maxConns int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if maxConns < 32 {
		maxConns = 32
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConns * 2,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Executor performs one HTTP request per call.
type Executor struct {
	client     *http.Client
	builder    *RequestBuilder
	failStatus int
	propagate  bool
}

// NewExecutor validates the operation up front so that an invalid URL,
// method or header fails the run before any request is sent.
func NewExecutor(op config.Operation, client *http.Client, propagate bool) (*Executor, error) {
	if op.Protocol != "" && op.Protocol != config.ProtocolHTTP {
		return nil, fmt.Errorf("operation protocol %q is not http", op.Protocol)
	}
	builder, err := NewRequestBuilder(op)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = NewClient(op.Timeout, 0)
	}
	return &Executor{
		client:     client,
		builder:    builder,
		failStatus: op.FailStatus,
		propagate:  propagate,
	}, nil
}

// Execute sends the request and drains the response. Latency runs from
// dispatch to the end of the body. Every response's status code is
// tabulated; it only counts as a failure when it reaches the configured
// fail-status threshold.
func (e *Executor) Execute(ctx context.Context) metrics.Outcome {
	start := time.Now()
	req, err := e.builder.Build(ctx)
	if err != nil {
		return metrics.Failed(time.Since(start), metrics.KindOther)
	}
	if e.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return metrics.Failed(time.Since(start), metrics.Classify(err))
	}
	_, err = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)

	if err != nil {
		o := metrics.Failed(latency, metrics.Classify(err))
		o.StatusCode = resp.StatusCode
		return o
	}
	if e.failStatus > 0 && resp.StatusCode >= e.failStatus {
		o := metrics.Failed(latency, metrics.KindHTTPStatus)
		o.StatusCode = resp.StatusCode
		return o
	}
	return metrics.Succeeded(latency, resp.StatusCode)
}
