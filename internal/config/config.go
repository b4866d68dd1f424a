package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// Mode is the dispatch policy a configuration selects.
type Mode string

const (
	ModeCount    Mode = "count"
	ModeDuration Mode = "duration"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// MethodWebSocket is the pseudo-method selecting the WebSocket protocol.
const MethodWebSocket = "WS"

var httpMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

type Config struct {
	TargetURL   string            `mapstructure:"url"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Body        string            `mapstructure:"data"`
	Concurrency int               `mapstructure:"concurrency"`
	Requests    int               `mapstructure:"requests"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	FailStatus  int               `mapstructure:"fail_status"`
	RequestID   bool              `mapstructure:"request_id"`
	WebSocket   WebSocketConfig   `mapstructure:"websocket"`
	Output      OutputFormat      `mapstructure:"output"`
	NoColor     bool              `mapstructure:"no_color"`
	Progress    bool              `mapstructure:"progress"`
	LogErrors   bool              `mapstructure:"log_errors"`
	Verbose     bool              `mapstructure:"verbose"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	ConfigFile  string            `mapstructure:"-"`
}

type WebSocketConfig struct {
	Message   string        `mapstructure:"message"`    // Sent once after connect
	Duration  time.Duration `mapstructure:"duration"`   // Session lifetime in duration mode
	Persist   bool          `mapstructure:"-"`          // Duration was explicitly configured
	Interval  time.Duration `mapstructure:"interval"`   // Re-send period during a session (0 = once)
	AwaitEcho bool          `mapstructure:"await_echo"` // Measure message latency up to the first reply
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// Protocol derives the protocol from the method.
func (c Config) Protocol() Protocol {
	if strings.EqualFold(strings.TrimSpace(c.Method), MethodWebSocket) {
		return ProtocolWebSocket
	}
	return ProtocolHTTP
}

// Mode reports whether the run is bounded by an operation count or by a
// per-session duration. Duration mode only applies to WebSocket runs.
func (c Config) Mode() Mode {
	if c.Protocol() == ProtocolWebSocket && c.WebSocket.Persist {
		return ModeDuration
	}
	return ModeCount
}

// Sessions returns the number of sessions a duration-mode run holds: the
// larger of --concurrency and --requests. At most Concurrency of them are open
// at once. A zero duration yields no sessions.
func (c Config) Sessions() int {
	if c.Mode() != ModeDuration || c.WebSocket.Duration <= 0 {
		return 0
	}
	n := c.Concurrency
	if c.Requests > n {
		n = c.Requests
	}
	return n
}

// Operation is the immutable request or session template every execution
// context runs.
type Operation struct {
	Protocol        Protocol
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	Timeout         time.Duration
	FailStatus      int
	RequestID       bool
	Message         string
	SessionDuration time.Duration
	MessageInterval time.Duration
	AwaitEcho       bool
}

// Operation derives the operation template from the configuration.
func (c Config) Operation() Operation {
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	op := Operation{
		Protocol:   c.Protocol(),
		Method:     strings.ToUpper(strings.TrimSpace(c.Method)),
		URL:        strings.TrimSpace(c.TargetURL),
		Headers:    headers,
		Body:       c.Body,
		Timeout:    c.Timeout,
		FailStatus: c.FailStatus,
		RequestID:  c.RequestID,
		Message:    c.WebSocket.Message,
		AwaitEcho:  c.WebSocket.AwaitEcho,
	}
	if c.Mode() == ModeDuration {
		op.SessionDuration = c.WebSocket.Duration
		op.MessageInterval = c.WebSocket.Interval
	}
	return op
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate reports every structural problem at once. A configuration that
// passes never produces a configuration error later in the run.
func (c Config) Validate() error {
	var issues []string

	if c.Concurrency > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d workers). Ensure you have authorization to test the target system.\n", c.Concurrency)
	}

	issues = append(issues, validateTarget(c)...)

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.FailStatus != 0 && (c.FailStatus < 100 || c.FailStatus > 599) {
		issues = append(issues, "fail-status must be 0 or a status code between 100 and 599")
	}

	for key, value := range c.Headers {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\r\n: ") {
			issues = append(issues, fmt.Sprintf("invalid header key %q", key))
		}
		if strings.ContainsAny(value, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header value for %s", key))
		}
	}

	issues = append(issues, validateWebSocket(c)...)

	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be one of text, json, yaml (got %q)", c.Output))
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTarget(c Config) []string {
	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		return []string{"url is required (use --help for usage information)"}
	}
	u, err := url.ParseRequestURI(target)
	if err != nil || u.Host == "" {
		return []string{fmt.Sprintf("invalid url %q", target)}
	}
	scheme := strings.ToLower(u.Scheme)
	method := strings.ToUpper(strings.TrimSpace(c.Method))

	if c.Protocol() == ProtocolWebSocket {
		if scheme != "ws" && scheme != "wss" {
			return []string{fmt.Sprintf("method WS requires a ws:// or wss:// url (got %q)", u.Scheme)}
		}
		return nil
	}
	var issues []string
	if !httpMethods[method] {
		issues = append(issues, fmt.Sprintf("unsupported method %q (supported: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, WS)", c.Method))
	}
	if scheme != "http" && scheme != "https" {
		issues = append(issues, fmt.Sprintf("method %s requires an http:// or https:// url (got %q)", method, u.Scheme))
	}
	return issues
}

func validateWebSocket(c Config) []string {
	var issues []string
	ws := c.WebSocket
	if c.Protocol() != ProtocolWebSocket {
		if ws.Message != "" || ws.Persist || ws.Interval > 0 || ws.AwaitEcho {
			issues = append(issues, "websocket options require method WS")
		}
		return issues
	}
	if ws.Duration < 0 {
		issues = append(issues, "ws-duration must be >= 0")
	}
	if ws.Interval < 0 {
		issues = append(issues, "ws-interval must be >= 0")
	}
	if ws.Interval > 0 && ws.Message == "" {
		issues = append(issues, "ws-interval requires ws-message")
	}
	if ws.Interval > 0 && !ws.Persist {
		issues = append(issues, "ws-interval requires ws-duration")
	}
	if ws.AwaitEcho && ws.Message == "" {
		issues = append(issues, "ws-await-echo requires ws-message")
	}
	if strings.TrimSpace(c.Body) != "" {
		issues = append(issues, "data is not supported with method WS; use ws-message")
	}
	return issues
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http (got %q)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	return issues
}
