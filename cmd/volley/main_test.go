package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/output"
	"github.com/torosent/volley/internal/runner"
	"github.com/torosent/volley/internal/testserver"
)

func decodeDocument(t *testing.T, data []byte) output.Document {
	t.Helper()
	var doc output.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid json report: %v\n%s", err, data)
	}
	return doc
}

func TestRunRejectsMalformedURL(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-u", "not a url", "-r", "5"}, &stdout, &stderr)
	if code != exitConfig {
		t.Fatalf("exit code = %d, want %d", code, exitConfig)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no report, got:\n%s", stdout.String())
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") {
		t.Errorf("stderr = %q, want Error: prefix", stderr.String())
	}
}

func TestRunWithoutArgumentsIsConfigError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != exitConfig {
		t.Fatalf("exit code = %d, want %d", code, exitConfig)
	}
	if !strings.Contains(stderr.String(), "url is required") {
		t.Errorf("stderr = %q, want url is required", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no report, got:\n%s", stdout.String())
	}
}

func TestRunRejectsBadThreshold(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-u", "http://localhost:1", "--threshold", "latency:p95"}, &stdout, &stderr)
	if code != exitConfig {
		t.Fatalf("exit code = %d, want %d", code, exitConfig)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no report, got:\n%s", stdout.String())
	}
}

func newTarget(t *testing.T) (*testserver.Server, string) {
	t.Helper()
	s := testserver.New()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func TestRunHTTPStatusTable(t *testing.T) {
	target, base := newTarget(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-u", base + "/status/200", "-c", "4", "-r", "1000", "-o", "json"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if got := target.Requests(); got != 1000 {
		t.Errorf("server saw %d requests, want 1000", got)
	}

	doc := decodeDocument(t, stdout.Bytes())
	r := doc.Report
	if r.Attempted != 1000 || r.Succeeded != 1000 || r.Failed != 0 {
		t.Errorf("attempted/succeeded/failed = %d/%d/%d", r.Attempted, r.Succeeded, r.Failed)
	}
	if len(r.StatusCodes) != 1 || r.StatusCodes[0].Code != 200 || r.StatusCodes[0].Count != 1000 {
		t.Errorf("status codes = %+v, want one row 200 -> 1000", r.StatusCodes)
	}
	if r.Latency == nil {
		t.Error("expected latency summary")
	}
	if doc.Run.RunID == "" || doc.Run.Mode != "count" || doc.Run.Requests != 1000 {
		t.Errorf("unexpected run info %+v", doc.Run)
	}
}

func TestRunFailuresStillExitZero(t *testing.T) {
	_, base := newTarget(t)

	var stdout, stderr bytes.Buffer
	args := []string{"-u", base + "/status/503", "-r", "6", "-c", "2", "--fail-status", "500", "--log-errors", "-o", "json"}
	code := run(args, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, want 0 for a completed run", code)
	}
	doc := decodeDocument(t, stdout.Bytes())
	if doc.Report.Failed != 6 {
		t.Errorf("failed = %d, want 6", doc.Report.Failed)
	}
	if len(doc.Report.Errors) != 1 || doc.Report.Errors[0].Kind != metrics.KindHTTPStatus {
		t.Errorf("errors = %+v", doc.Report.Errors)
	}
	if len(doc.Report.StatusCodes) != 1 || doc.Report.StatusCodes[0].Code != 503 {
		t.Errorf("status codes = %+v, want failing codes tabulated", doc.Report.StatusCodes)
	}
	if doc.Report.Latency != nil {
		t.Error("latency should be absent with zero successes")
	}
	if !strings.Contains(stderr.String(), "operation failed") {
		t.Errorf("expected failure log lines on stderr, got:\n%s", stderr.String())
	}
}

func TestRunThresholdFailureExitCode(t *testing.T) {
	_, base := newTarget(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-u", base, "-r", "3", "--no-color", "--threshold", "requests:count > 10"}, &stdout, &stderr)
	if code != exitThreshold {
		t.Fatalf("exit code = %d, want %d", code, exitThreshold)
	}
	out := stdout.String()
	if !strings.Contains(out, "Thresholds:") || !strings.Contains(out, "requests:count > 10") {
		t.Errorf("report lacks threshold results:\n%s", out)
	}
	if strings.Index(out, base) > strings.Index(out, "Attempted:") {
		t.Errorf("banner should precede the results:\n%s", out)
	}
}

func TestRunHTTPTimeout(t *testing.T) {
	_, base := newTarget(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-u", base + "/delay?ms=10000", "-r", "10", "-c", "10", "-t", "1", "-o", "yaml"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	out := stdout.String()
	for _, want := range []string{"attempted: 10", "failed: 10", "kind: " + string(metrics.KindTimeout), "count: 10"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml report lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "latency:") {
		t.Errorf("latency should be absent:\n%s", out)
	}
}

func TestRunWebSocketSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("session test waits for the session duration")
	}
	target, base := newTarget(t)
	wsBase := "ws" + strings.TrimPrefix(base, "http")

	var stdout, stderr bytes.Buffer
	args := []string{"-u", wsBase + "/ws", "-m", "WS", "--ws-message", "hello", "--ws-duration", "2", "-c", "3", "-r", "1", "-o", "json"}
	code := run(args, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if got := target.Sessions(); got != 3 {
		t.Errorf("server accepted %d sessions, want 3", got)
	}

	doc := decodeDocument(t, stdout.Bytes())
	r := doc.Report
	if r.Attempted != 3 || r.Succeeded != 3 {
		t.Fatalf("attempted/succeeded = %d/%d, errors %+v", r.Attempted, r.Succeeded, r.Errors)
	}
	if r.Latency == nil || r.Latency.MinMs < 2000 || r.Latency.MaxMs > 4500 {
		t.Errorf("session lifetimes out of range: %+v", r.Latency)
	}
	if r.MessagesSent != 3 {
		t.Errorf("messages sent = %d, want 3", r.MessagesSent)
	}
	if doc.Run.Mode != "duration" || doc.Run.Sessions != 3 {
		t.Errorf("unexpected run info %+v", doc.Run)
	}
}

func TestRunWebSocketDroppedSessions(t *testing.T) {
	_, base := newTarget(t)
	wsBase := "ws" + strings.TrimPrefix(base, "http")

	var stdout, stderr bytes.Buffer
	args := []string{"-u", wsBase + "/ws/drop", "-m", "WS", "--ws-duration", "5", "-c", "2", "-o", "json"}
	code := run(args, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	r := decodeDocument(t, stdout.Bytes()).Report
	if r.Attempted != 2 || r.Failed != 2 {
		t.Fatalf("attempted/failed = %d/%d", r.Attempted, r.Failed)
	}
	if len(r.Errors) != 1 || r.Errors[0].Kind != metrics.KindUnexpectedClose {
		t.Errorf("errors = %+v, want UnexpectedClose", r.Errors)
	}
}

func TestRunnerOptions(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantMode runner.Mode
		wantConc int
		wantTot  int
	}{
		{"count", []string{"-u", "http://x", "-c", "4", "-r", "100"}, runner.ModeCount, 4, 100},
		{"sessions from concurrency", []string{"-u", "ws://x", "-m", "WS", "--ws-duration", "1", "-c", "5", "-r", "2"}, runner.ModeSession, 5, 5},
		{"sessions from requests", []string{"-u", "ws://x", "-m", "WS", "--ws-duration", "1", "-c", "2", "-r", "6"}, runner.ModeSession, 2, 6},
		{"websocket count", []string{"-u", "ws://x", "-m", "WS", "-c", "2", "-r", "6"}, runner.ModeCount, 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewLoader().Load(tt.args)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			opts := runnerOptions(cfg)
			if opts.Mode != tt.wantMode || opts.Concurrency != tt.wantConc || opts.Total != tt.wantTot {
				t.Errorf("runnerOptions() = %s/%d/%d, want %s/%d/%d",
					opts.Mode, opts.Concurrency, opts.Total, tt.wantMode, tt.wantConc, tt.wantTot)
			}
		})
	}
}

func TestSessionModeRespectsConcurrency(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"-u", "ws://x", "-m", "WS", "--ws-duration", "1", "-c", "1", "-r", "5"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var inFlight, maxFlight, calls atomic.Int64
	opts := runnerOptions(cfg)
	opts.Executor = runner.ExecutorFunc(func(ctx context.Context) metrics.Outcome {
		calls.Add(1)
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxFlight.Load()
			if cur <= prev || maxFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return metrics.Succeeded(5*time.Millisecond, 0)
	})
	runner.New(opts).Run(context.Background())

	if got := calls.Load(); got != 5 {
		t.Errorf("ran %d sessions, want 5", got)
	}
	if got := maxFlight.Load(); got > 1 {
		t.Errorf("max concurrent sessions = %d, want <= 1", got)
	}
}

func TestNewExecutorSelectsProtocol(t *testing.T) {
	for _, method := range []string{"GET", "WS"} {
		cfg := config.Defaults()
		cfg.Method = method
		cfg.TargetURL = "http://localhost:8080/"
		if method == "WS" {
			cfg.TargetURL = "ws://localhost:8080/ws"
		}
		exec, err := newExecutor(&cfg, nil)
		if err != nil {
			t.Fatalf("newExecutor(%s) error = %v", method, err)
		}
		if exec == nil {
			t.Fatalf("newExecutor(%s) returned nil", method)
		}
	}
}
