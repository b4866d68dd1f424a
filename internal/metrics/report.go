package metrics

import "time"

// Report is the final summary of a run.
type Report struct {
	Elapsed          time.Duration   `json:"-" yaml:"-"`
	ElapsedMs        float64         `json:"elapsed_ms" yaml:"elapsed_ms"`
	Attempted        int64           `json:"attempted" yaml:"attempted"`
	Succeeded        int64           `json:"succeeded" yaml:"succeeded"`
	Failed           int64           `json:"failed" yaml:"failed"`
	RequestsPerSec   float64         `json:"requests_per_sec" yaml:"requests_per_sec"`
	Latency          *LatencySummary `json:"latency,omitempty" yaml:"latency,omitempty"`
	StatusCodes      []StatusCount   `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	StatusClasses    []ClassCount    `json:"status_classes,omitempty" yaml:"status_classes,omitempty"`
	Errors           []ErrorCount    `json:"errors,omitempty" yaml:"errors,omitempty"`
	MessagesSent     int64           `json:"messages_sent,omitempty" yaml:"messages_sent,omitempty"`
	MessagesReceived int64           `json:"messages_received,omitempty" yaml:"messages_received,omitempty"`
}

// LatencySummary holds statistics over successful operations only.
type LatencySummary struct {
	Mean time.Duration `json:"-" yaml:"-"`
	Min  time.Duration `json:"-" yaml:"-"`
	Max  time.Duration `json:"-" yaml:"-"`
	P50  time.Duration `json:"-" yaml:"-"`
	P90  time.Duration `json:"-" yaml:"-"`
	P95  time.Duration `json:"-" yaml:"-"`
	P99  time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MeanMs float64 `json:"mean_ms" yaml:"mean_ms"`
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
	P90Ms  float64 `json:"p90_ms" yaml:"p90_ms"`
	P95Ms  float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms  float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Summarize turns a frozen snapshot and the run's wall time into a Report. It
// does not modify the snapshot and returns equal reports for equal inputs.
func Summarize(s *Snapshot, elapsed time.Duration) Report {
	if s == nil {
		s = SnapshotOf()
	}
	r := Report{
		Elapsed:          elapsed,
		ElapsedMs:        toMs(elapsed),
		Attempted:        s.Attempted,
		Succeeded:        s.Succeeded,
		Failed:           s.Failed,
		StatusCodes:      FlattenStatusCodes(s.StatusCodes),
		StatusClasses:    FlattenStatusClasses(s.StatusCodes),
		Errors:           FlattenErrorKinds(s.ErrorKinds),
		MessagesSent:     s.MessagesSent,
		MessagesReceived: s.MessagesReceived,
	}
	if elapsed > 0 {
		r.RequestsPerSec = float64(s.Attempted) / elapsed.Seconds()
	}
	r.Latency = summarizeLatency(s)
	return r
}

func summarizeLatency(s *Snapshot) *LatencySummary {
	mean, ok := s.MeanLatency()
	if !ok {
		return nil
	}
	l := &LatencySummary{
		Mean: mean,
		Min:  s.MinLatency,
		Max:  s.MaxLatency,
	}
	l.P50, _ = s.Percentile(50)
	l.P90, _ = s.Percentile(90)
	l.P95, _ = s.Percentile(95)
	l.P99, _ = s.Percentile(99)

	l.MeanMs = toMs(l.Mean)
	l.MinMs = toMs(l.Min)
	l.MaxMs = toMs(l.Max)
	l.P50Ms = toMs(l.P50)
	l.P90Ms = toMs(l.P90)
	l.P95Ms = toMs(l.P95)
	l.P99Ms = toMs(l.P99)
	return l
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
