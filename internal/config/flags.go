package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "volley -u <url> [flags]",
		Short:         "Concurrent HTTP and WebSocket load generator",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	RegisterFlags(cmd)
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Target
	flags.StringP("url", "u", "", "Target URL (http://, https://, ws:// or wss://)")
	flags.StringP("method", "m", "GET", "HTTP method, or WS for WebSocket")
	flags.StringP("data", "d", "", "Request body")
	flags.StringArrayP("headers", "H", nil, "Request header in \"Key: Value\" form (repeatable)")

	// Load shape
	flags.IntP("concurrency", "c", 1, "Number of concurrent execution contexts")
	flags.IntP("requests", "r", 1, "Total operations, or concurrent sessions with --ws-duration")
	flags.IntP("timeout", "t", 30, "Per-operation timeout in seconds (0 disables)")

	// WebSocket
	flags.String("ws-message", "", "Message sent after the WebSocket handshake")
	flags.Int("ws-duration", 0, "Seconds each WebSocket session stays open; enables duration mode")
	flags.Duration("ws-interval", 0, "Re-send --ws-message at this interval during a session")
	flags.Bool("ws-await-echo", false, "Measure WebSocket message latency up to the first reply")

	// HTTP
	flags.Int("fail-status", 0, "Count responses with status >= this code as failures (0 disables)")
	flags.Bool("request-id", false, "Attach a unique X-Request-Id header to each request")

	// Output
	flags.StringP("output", "o", string(OutputText), "Report format: text, json or yaml")
	flags.Bool("no-color", false, "Disable colored text output")
	flags.Bool("progress", false, "Print periodic progress to stderr")
	flags.Bool("log-errors", false, "Log each failed operation to stderr")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	flags.StringArray("threshold", nil, "Pass/fail threshold, e.g. 'latency:p95 < 500' (repeatable)")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint; enables tracing")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of operations traced (0.0-1.0)")
	flags.Bool("tracing-propagate", true, "Inject W3C trace context into outgoing requests")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies explicitly set flags on top of file settings.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("url") {
		val, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("data") {
		val, err := fs.GetString("data")
		if err != nil {
			return err
		}
		cfg.Body = val
	}
	if fs.Changed("headers") {
		vals, err := fs.GetStringArray("headers")
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			key, value, err := parseHeader(entry)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("requests") {
		val, err := fs.GetInt("requests")
		if err != nil {
			return err
		}
		cfg.Requests = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetInt("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = time.Duration(val) * time.Second
	}
	if fs.Changed("ws-message") {
		val, err := fs.GetString("ws-message")
		if err != nil {
			return err
		}
		cfg.WebSocket.Message = val
	}
	if fs.Changed("ws-duration") {
		val, err := fs.GetInt("ws-duration")
		if err != nil {
			return err
		}
		cfg.WebSocket.Duration = time.Duration(val) * time.Second
		cfg.WebSocket.Persist = true
	}
	if fs.Changed("ws-interval") {
		val, err := fs.GetDuration("ws-interval")
		if err != nil {
			return err
		}
		cfg.WebSocket.Interval = val
	}
	if fs.Changed("ws-await-echo") {
		val, err := fs.GetBool("ws-await-echo")
		if err != nil {
			return err
		}
		cfg.WebSocket.AwaitEcho = val
	}
	if fs.Changed("fail-status") {
		val, err := fs.GetInt("fail-status")
		if err != nil {
			return err
		}
		cfg.FailStatus = val
	}
	if fs.Changed("request-id") {
		val, err := fs.GetBool("request-id")
		if err != nil {
			return err
		}
		cfg.RequestID = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("no-color") {
		val, err := fs.GetBool("no-color")
		if err != nil {
			return err
		}
		cfg.NoColor = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("verbose") {
		val, err := fs.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = val
	}
	return nil
}
