package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Snapshot is the frozen aggregate of a run. Nothing writes to it after it is
// created, so it can be shared and summarized any number of times.
type Snapshot struct {
	Attempted        int64
	Succeeded        int64
	Failed           int64
	SumLatency       time.Duration
	MinLatency       time.Duration
	MaxLatency       time.Duration
	StatusCodes      map[int]int64
	ErrorKinds       map[ErrorKind]int64
	MessagesSent     int64
	MessagesReceived int64

	hist *hdrhistogram.Histogram
}

// SnapshotOf builds a snapshot directly from outcomes, without a Collector.
func SnapshotOf(outcomes ...Outcome) *Snapshot {
	b := newBucket()
	for _, o := range outcomes {
		b.record(o)
	}
	return b.freeze()
}

// LatencySamples returns the number of latencies in the distribution. It
// always equals Succeeded.
func (s *Snapshot) LatencySamples() int64 {
	if s == nil || s.hist == nil {
		return 0
	}
	return s.hist.TotalCount()
}

// Percentile returns the latency below which p percent of successful
// operations fall, clamped to the exact observed min and max. ok is false when
// there are no successful samples.
func (s *Snapshot) Percentile(p float64) (time.Duration, bool) {
	if s.LatencySamples() == 0 {
		return 0, false
	}
	v := time.Duration(s.hist.ValueAtQuantile(p)) * time.Microsecond
	if v < s.MinLatency {
		v = s.MinLatency
	}
	if v > s.MaxLatency {
		v = s.MaxLatency
	}
	return v, true
}

// MeanLatency returns the exact mean of successful latencies.
func (s *Snapshot) MeanLatency() (time.Duration, bool) {
	if s == nil || s.Succeeded == 0 {
		return 0, false
	}
	return s.SumLatency / time.Duration(s.Succeeded), true
}
