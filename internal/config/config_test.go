package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.TargetURL = "http://localhost:8080/health"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with url", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.TargetURL = "" }, wantErr: "url is required"},
		{name: "not a url", mutate: func(c *Config) { c.TargetURL = "not a url" }, wantErr: "invalid url"},
		{name: "no host", mutate: func(c *Config) { c.TargetURL = "http:///path" }, wantErr: "invalid url"},
		{name: "unknown method", mutate: func(c *Config) { c.Method = "BREW" }, wantErr: "unsupported method"},
		{name: "http method ws url", mutate: func(c *Config) { c.TargetURL = "ws://localhost" }, wantErr: "requires an http://"},
		{name: "ws method http url", mutate: func(c *Config) { c.Method = "WS" }, wantErr: "requires a ws://"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "concurrency must be >= 1"},
		{name: "negative requests", mutate: func(c *Config) { c.Requests = -1 }, wantErr: "requests must be >= 0"},
		{name: "zero requests allowed", mutate: func(c *Config) { c.Requests = 0 }},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: "timeout must be >= 0"},
		{name: "bad fail status", mutate: func(c *Config) { c.FailStatus = 42 }, wantErr: "fail-status"},
		{name: "bad header key", mutate: func(c *Config) { c.Headers = map[string]string{"Bad Key": "v"} }, wantErr: "invalid header key"},
		{name: "header injection", mutate: func(c *Config) { c.Headers = map[string]string{"X": "a\r\nB: c"} }, wantErr: "invalid header value"},
		{name: "ws option on http", mutate: func(c *Config) { c.WebSocket.Message = "hi" }, wantErr: "websocket options require method WS"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xml" }, wantErr: "output must be one of"},
		{name: "bad tracing protocol", mutate: func(c *Config) { c.Tracing.Protocol = "udp" }, wantErr: "tracing protocol"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample rate"},
		{
			name: "ws interval without duration",
			mutate: func(c *Config) {
				c.Method, c.TargetURL = "WS", "ws://localhost/ws"
				c.WebSocket.Message = "hi"
				c.WebSocket.Interval = time.Second
			},
			wantErr: "ws-interval requires ws-duration",
		},
		{
			name: "ws await echo without message",
			mutate: func(c *Config) {
				c.Method, c.TargetURL = "WS", "wss://localhost/ws"
				c.WebSocket.AwaitEcho = true
			},
			wantErr: "ws-await-echo requires ws-message",
		},
		{
			name: "ws body",
			mutate: func(c *Config) {
				c.Method, c.TargetURL = "WS", "ws://localhost/ws"
				c.Body = "payload"
			},
			wantErr: "data is not supported",
		},
		{
			name: "ws duration mode",
			mutate: func(c *Config) {
				c.Method, c.TargetURL = "WS", "ws://localhost/ws"
				c.WebSocket.Message = "hi"
				c.WebSocket.Duration = 5 * time.Second
				c.WebSocket.Persist = true
				c.WebSocket.Interval = time.Second
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := validConfig()
	cfg.Concurrency = 0
	cfg.Requests = -5
	cfg.Output = "csv"

	err := cfg.Validate()
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if got := len(verr.Issues()); got != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", got, verr.Issues())
	}
}

func TestSessions(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		requests    int
		duration    time.Duration
		persist     bool
		want        int
	}{
		{name: "count mode", concurrency: 3, requests: 10, want: 0},
		{name: "concurrency wins", concurrency: 3, requests: 1, duration: time.Second, persist: true, want: 3},
		{name: "requests wins", concurrency: 2, requests: 7, duration: time.Second, persist: true, want: 7},
		{name: "zero duration", concurrency: 3, requests: 3, duration: 0, persist: true, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Method = "WS"
			cfg.Concurrency = tt.concurrency
			cfg.Requests = tt.requests
			cfg.WebSocket.Duration = tt.duration
			cfg.WebSocket.Persist = tt.persist
			if got := cfg.Sessions(); got != tt.want {
				t.Errorf("Sessions() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOperationCopiesHeaders(t *testing.T) {
	cfg := validConfig()
	cfg.Headers = map[string]string{"X-A": "1"}
	op := cfg.Operation()
	op.Headers["X-A"] = "changed"
	if cfg.Headers["X-A"] != "1" {
		t.Fatal("operation shares the header map with the config")
	}
	if op.SessionDuration != 0 {
		t.Errorf("count-mode operation has a session duration: %s", op.SessionDuration)
	}
}

func TestParseHeader(t *testing.T) {
	key, value, err := parseHeader("  content-type :  text/plain ")
	if err != nil {
		t.Fatalf("parseHeader() error = %v", err)
	}
	if key != "Content-Type" || value != "text/plain" {
		t.Errorf("parseHeader() = %q, %q", key, value)
	}
	if _, _, err := parseHeader(": v"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, _, err := parseHeader("novalue"); err == nil {
		t.Error("expected error for missing colon")
	}
}

func TestAsSeconds(t *testing.T) {
	tests := []struct {
		in   interface{}
		want time.Duration
	}{
		{5, 5 * time.Second},
		{float64(2), 2 * time.Second},
		{"7", 7 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{1.5, 1500 * time.Millisecond},
		{int64(3), 3 * time.Second},
		{nil, 0},
	}
	for _, tt := range tests {
		got, err := asSeconds(tt.in)
		if err != nil {
			t.Errorf("asSeconds(%v) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("asSeconds(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAsStringSlice(t *testing.T) {
	got, err := asStringSlice("latency:p95 < 100")
	if err != nil || len(got) != 1 || got[0] != "latency:p95 < 100" {
		t.Errorf("asStringSlice(string) = %v, %v; want one unsplit entry", got, err)
	}
	got, err = asStringSlice([]interface{}{"a: 1", "b: 2"})
	if err != nil || len(got) != 2 || got[1] != "b: 2" {
		t.Errorf("asStringSlice(list) = %v, %v", got, err)
	}
}
