package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// TotalsSource exposes live outcome counts. *metrics.Collector satisfies it.
type TotalsSource interface {
	Totals() (attempted, succeeded, failed int64)
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   TotalsSource
	expected int64
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. expected is the planned number of operations; zero hides the
// percentage.
func NewProgressReporter(source TotalsSource, expected int64, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		expected: expected,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	go p.run()
}

// Stop halts progress updates and terminates the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer, p.line())
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	attempted, succeeded, failed := p.source.Totals()
	elapsed := time.Since(p.start)
	var rps float64
	if elapsed > 0 {
		rps = float64(attempted) / elapsed.Seconds()
	}
	line := fmt.Sprintf("\rRequests: %d | Successes: %d | Failures: %d | RPS: %.1f",
		attempted, succeeded, failed, rps)
	if p.expected > 0 {
		line += fmt.Sprintf(" | %.0f%%", float64(attempted)/float64(p.expected)*100)
	}
	return line
}
