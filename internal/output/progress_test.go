package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/volley/internal/metrics"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressReporter(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(metrics.Succeeded(time.Millisecond, 200))
	c.Record(metrics.Failed(time.Millisecond, metrics.KindTimeout))

	var out syncBuffer
	p := NewProgressReporter(c, 4, 10*time.Millisecond, &out)
	p.Start()
	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()
	p.Stop()

	got := out.String()
	if !strings.Contains(got, "Requests: 2 | Successes: 1 | Failures: 1") {
		t.Errorf("unexpected progress output %q", got)
	}
	if !strings.Contains(got, "50%") {
		t.Errorf("progress output lacks percentage: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("final progress line is not terminated: %q", got)
	}
}

func TestProgressReporterWithoutExpected(t *testing.T) {
	var out syncBuffer
	p := NewProgressReporter(metrics.NewCollector(), 0, time.Hour, &out)
	p.Start()
	p.Stop()
	if strings.Contains(out.String(), "%") {
		t.Errorf("unexpected percentage in %q", out.String())
	}
}
