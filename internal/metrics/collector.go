package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/volley/internal/counter"
)

const (
	shardCount = 32

	// Latencies are tracked in microseconds from 1µs up to one hour with
	// 3 significant figures, so both sub-millisecond requests and long
	// websocket sessions land in the same distribution.
	histLowest  = 1
	histHighest = int64(time.Hour / time.Microsecond)
	histSigFigs = 3
)

// Recorder accepts outcomes. Collector and the per-worker handles returned by
// Collector.Recorder both satisfy it.
type Recorder interface {
	Record(o Outcome)
}

// Collector accumulates outcomes from concurrent execution contexts.
//
// Outcomes are spread over independent shards, each guarded by its own mutex,
// so workers rarely contend. All updates are commutative, so the merged
// Snapshot does not depend on arrival order.
type Collector struct {
	shards [shardCount]*shard
	cursor counter.Counter
}

type shard struct {
	mu     sync.Mutex
	bucket *bucket
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	c := &Collector{}
	for i := range c.shards {
		c.shards[i] = &shard{bucket: newBucket()}
	}
	return c
}

// Record folds one outcome into the collector. Safe for concurrent use.
func (c *Collector) Record(o Outcome) {
	idx := uint64(c.cursor.Inc()) % shardCount
	c.shards[idx].record(o)
}

// Recorder returns a handle pinned to one shard. Execution contexts use it
// so that each worker writes to the same shard for the whole run.
func (c *Collector) Recorder(worker int) Recorder {
	if worker < 0 {
		worker = -worker
	}
	return c.shards[worker%shardCount]
}

// Totals returns the live attempted/succeeded/failed counts. Each shard is
// read under its lock, so attempted always equals succeeded+failed.
func (c *Collector) Totals() (attempted, succeeded, failed int64) {
	for _, s := range c.shards {
		s.mu.Lock()
		succeeded += s.bucket.successes
		failed += s.bucket.failures
		s.mu.Unlock()
	}
	return succeeded + failed, succeeded, failed
}

// Snapshot merges every shard into an independent, immutable Snapshot. It is
// meant to be called once all writers have finished; calling it earlier is
// safe but yields a partial view.
func (c *Collector) Snapshot() *Snapshot {
	merged := newBucket()
	for _, s := range c.shards {
		s.mu.Lock()
		merged.merge(s.bucket)
		s.mu.Unlock()
	}
	return merged.freeze()
}

func (s *shard) Record(o Outcome) {
	s.record(o)
}

func (s *shard) record(o Outcome) {
	s.mu.Lock()
	s.bucket.record(o)
	s.mu.Unlock()
}

// bucket is the unsynchronized accumulator behind a shard.
type bucket struct {
	successes        int64
	failures         int64
	hist             *hdrhistogram.Histogram
	sumLatency       time.Duration
	minLatency       time.Duration
	maxLatency       time.Duration
	statusCodes      map[int]int64
	errorKinds       map[ErrorKind]int64
	messagesSent     int64
	messagesReceived int64
}

func newBucket() *bucket {
	return &bucket{
		hist:        hdrhistogram.New(histLowest, histHighest, histSigFigs),
		statusCodes: make(map[int]int64),
		errorKinds:  make(map[ErrorKind]int64),
	}
}

func (b *bucket) record(o Outcome) {
	if o.StatusCode > 0 {
		b.statusCodes[o.StatusCode]++
	}
	b.messagesSent += o.MessagesSent
	b.messagesReceived += o.MessagesReceived

	if !o.Success {
		b.failures++
		kind := o.Kind
		if kind == "" {
			kind = KindOther
		}
		b.errorKinds[kind]++
		return
	}

	b.successes++
	latency := o.Latency
	if latency < 0 {
		latency = 0
	}
	// clampMicros keeps the value inside the histogram's trackable range, so
	// RecordValue cannot fail and every success lands in the histogram.
	_ = b.hist.RecordValue(clampMicros(latency))
	b.sumLatency += latency
	if b.successes == 1 || latency < b.minLatency {
		b.minLatency = latency
	}
	if latency > b.maxLatency {
		b.maxLatency = latency
	}
}

func (b *bucket) merge(other *bucket) {
	if other.successes > 0 {
		if b.successes == 0 || other.minLatency < b.minLatency {
			b.minLatency = other.minLatency
		}
		if other.maxLatency > b.maxLatency {
			b.maxLatency = other.maxLatency
		}
		b.sumLatency += other.sumLatency
		b.hist.Merge(other.hist)
	}
	b.successes += other.successes
	b.failures += other.failures
	b.messagesSent += other.messagesSent
	b.messagesReceived += other.messagesReceived
	for code, n := range other.statusCodes {
		b.statusCodes[code] += n
	}
	for kind, n := range other.errorKinds {
		b.errorKinds[kind] += n
	}
}

func (b *bucket) freeze() *Snapshot {
	return &Snapshot{
		Attempted:        b.successes + b.failures,
		Succeeded:        b.successes,
		Failed:           b.failures,
		SumLatency:       b.sumLatency,
		MinLatency:       b.minLatency,
		MaxLatency:       b.maxLatency,
		StatusCodes:      b.statusCodes,
		ErrorKinds:       b.errorKinds,
		MessagesSent:     b.messagesSent,
		MessagesReceived: b.messagesReceived,
		hist:             b.hist,
	}
}

func clampMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < histLowest {
		return histLowest
	}
	if us > histHighest {
		return histHighest
	}
	return us
}
