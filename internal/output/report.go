package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/threshold"
)

// RunInfo describes what a run was configured to do.
type RunInfo struct {
	RunID           string            `json:"run_id" yaml:"run_id"`
	Target          string            `json:"target" yaml:"target"`
	Method          string            `json:"method" yaml:"method"`
	Protocol        string            `json:"protocol" yaml:"protocol"`
	Mode            string            `json:"mode" yaml:"mode"`
	Concurrency     int               `json:"concurrency" yaml:"concurrency"`
	Requests        int               `json:"requests,omitempty" yaml:"requests,omitempty"`
	Sessions        int               `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	SessionDuration time.Duration     `json:"-" yaml:"-"`
	SessionSeconds  float64           `json:"session_seconds,omitempty" yaml:"session_seconds,omitempty"`
	Timeout         time.Duration     `json:"-" yaml:"-"`
	Body            string            `json:"-" yaml:"-"`
	Headers         map[string]string `json:"-" yaml:"-"`
	Message         string            `json:"-" yaml:"-"`
}

// NewRunInfo summarizes a validated configuration.
func NewRunInfo(cfg *config.Config, runID string) RunInfo {
	info := RunInfo{
		RunID:       runID,
		Target:      cfg.TargetURL,
		Method:      cfg.Method,
		Protocol:    string(cfg.Protocol()),
		Mode:        string(cfg.Mode()),
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
		Body:        cfg.Body,
		Headers:     cfg.Headers,
		Message:     cfg.WebSocket.Message,
	}
	if cfg.Mode() == config.ModeDuration {
		info.Sessions = cfg.Sessions()
		info.SessionDuration = cfg.WebSocket.Duration
		info.SessionSeconds = cfg.WebSocket.Duration.Seconds()
	} else {
		info.Requests = cfg.Requests
	}
	return info
}

// Document is the machine-readable form of a finished run.
type Document struct {
	Run        RunInfo            `json:"run" yaml:"run"`
	Report     metrics.Report     `json:"report" yaml:"report"`
	Thresholds []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Passed     bool               `json:"passed" yaml:"passed"`
}

func NewDocument(info RunInfo, report metrics.Report, results []threshold.Result) Document {
	return Document{
		Run:        info,
		Report:     report,
		Thresholds: results,
		Passed:     threshold.AllPassed(results),
	}
}

// PrintBanner writes the pre-run summary of what is about to be sent.
func PrintBanner(w io.Writer, info RunInfo, scheme *ColorScheme) {
	if scheme == nil {
		scheme = NoColorScheme()
	}
	fmt.Fprintln(w, scheme.Title.Sprint("--- volley ---"))
	row(w, scheme, "Target", info.Target)
	row(w, scheme, "Method", info.Method)
	row(w, scheme, "Concurrency", fmt.Sprint(info.Concurrency))
	if info.Mode == string(config.ModeDuration) {
		row(w, scheme, "Sessions", fmt.Sprint(info.Sessions))
		row(w, scheme, "Duration", info.SessionDuration.String())
	} else {
		row(w, scheme, "Requests", fmt.Sprint(info.Requests))
	}
	if info.Timeout > 0 {
		row(w, scheme, "Timeout", info.Timeout.String())
	}
	if info.Body != "" {
		row(w, scheme, "Body", truncate(info.Body, 80))
	}
	if info.Message != "" {
		row(w, scheme, "Message", truncate(info.Message, 80))
	}
	if len(info.Headers) > 0 {
		keys := make([]string, 0, len(info.Headers))
		for k := range info.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, scheme.Label.Sprint("Headers:"))
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, info.Headers[k])
		}
	}
	fmt.Fprintln(w)
}

// PrintReport outputs a human-readable summary report. Sections appear in a
// fixed order: totals, throughput, latency, status codes, errors, messages,
// thresholds.
func PrintReport(w io.Writer, report metrics.Report, results []threshold.Result, scheme *ColorScheme) {
	if scheme == nil {
		scheme = NoColorScheme()
	}
	fmt.Fprintln(w, scheme.Title.Sprint("--- Results ---"))
	row(w, scheme, "Elapsed", report.Elapsed.Round(time.Microsecond).String())
	row(w, scheme, "Attempted", fmt.Sprint(report.Attempted))
	row(w, scheme, "Succeeded", scheme.Success.Sprint(report.Succeeded))
	failed := fmt.Sprint(report.Failed)
	if report.Failed > 0 {
		failed = scheme.Error.Sprint(report.Failed)
	}
	row(w, scheme, "Failed", failed)
	row(w, scheme, "Requests/sec", fmt.Sprintf("%.2f", report.RequestsPerSec))

	fmt.Fprintln(w, "\n"+scheme.Label.Sprint("Latency:"))
	if l := report.Latency; l != nil {
		latencyRow(w, "Mean", l.Mean)
		latencyRow(w, "Min", l.Min)
		latencyRow(w, "Max", l.Max)
		latencyRow(w, "P50", l.P50)
		latencyRow(w, "P90", l.P90)
		latencyRow(w, "P95", l.P95)
		latencyRow(w, "P99", l.P99)
	} else {
		fmt.Fprintln(w, "  n/a (no successful operations)")
	}

	if len(report.StatusCodes) > 0 {
		fmt.Fprintln(w, "\n"+scheme.Label.Sprint("Status Codes:"))
		for _, sc := range report.StatusCodes {
			fmt.Fprintf(w, "  %s  %d\n", scheme.statusColor(sc.Code).Sprint(sc.Code), sc.Count)
		}
		classes := make([]string, 0, len(report.StatusClasses))
		for _, cc := range report.StatusClasses {
			classes = append(classes, fmt.Sprintf("%s=%d", cc.Class, cc.Count))
		}
		fmt.Fprintf(w, "  (%s)\n", strings.Join(classes, " "))
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\n"+scheme.Label.Sprint("Errors:"))
		for _, ec := range report.Errors {
			fmt.Fprintf(w, "  %-18s %d\n", scheme.Error.Sprint(string(ec.Kind)), ec.Count)
		}
	}

	if report.MessagesSent > 0 || report.MessagesReceived > 0 {
		fmt.Fprintln(w, "\n"+scheme.Label.Sprint("Messages:"))
		fmt.Fprintf(w, "  Sent:      %d\n", report.MessagesSent)
		fmt.Fprintf(w, "  Received:  %d\n", report.MessagesReceived)
	}

	if len(results) > 0 {
		fmt.Fprintln(w, "\n"+scheme.Label.Sprint("Thresholds:"))
		for _, r := range results {
			c := scheme.Success
			if !r.Pass {
				c = scheme.Error
			}
			fmt.Fprintf(w, "  %s\n", c.Sprint(r.Message))
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func row(w io.Writer, scheme *ColorScheme, label, value string) {
	fmt.Fprintf(w, "%s %s\n", scheme.Label.Sprintf("%-14s", label+":"), value)
}

func latencyRow(w io.Writer, label string, d time.Duration) {
	fmt.Fprintf(w, "  %-6s %s\n", label+":", d.Round(time.Microsecond))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
