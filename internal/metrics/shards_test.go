package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollector_ShardInitialization(t *testing.T) {
	c := NewCollector()
	for i, s := range c.shards {
		if s == nil {
			t.Fatalf("shard %d is nil", i)
		}
		if s.bucket == nil || s.bucket.hist == nil {
			t.Fatalf("shard %d bucket not initialized", i)
		}
	}
}

func TestCollector_RoundRobinDistribution(t *testing.T) {
	c := NewCollector()
	total := shardCount * 10

	for i := 0; i < total; i++ {
		c.Record(Succeeded(time.Millisecond, 200))
	}

	for i, s := range c.shards {
		s.mu.Lock()
		n := s.bucket.successes
		s.mu.Unlock()
		if n != 10 {
			t.Errorf("shard %d: expected 10 records, got %d", i, n)
		}
	}
}

func TestCollector_RecorderPinsShard(t *testing.T) {
	c := NewCollector()
	rec := c.Recorder(shardCount + 3)
	rec.Record(Succeeded(time.Millisecond, 200))
	rec.Record(Failed(time.Millisecond, KindTimeout))

	s := c.shards[3]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucket.successes != 1 || s.bucket.failures != 1 {
		t.Fatalf("expected pinned shard to hold both outcomes, got %d/%d", s.bucket.successes, s.bucket.failures)
	}
}

func TestCollector_SnapshotAggregation(t *testing.T) {
	c := NewCollector()

	// Shard 0: 1 success, 10ms
	c.shards[0].mu.Lock()
	c.shards[0].bucket.record(Succeeded(10*time.Millisecond, 200))
	c.shards[0].mu.Unlock()

	// Shard 1: 1 failure, 20ms, with a status code
	failed := Failed(20*time.Millisecond, KindHTTPStatus)
	failed.StatusCode = 500
	c.shards[1].mu.Lock()
	c.shards[1].bucket.record(failed)
	c.shards[1].mu.Unlock()

	// Shard 2: 1 success, 30ms
	c.shards[2].mu.Lock()
	c.shards[2].bucket.record(Succeeded(30*time.Millisecond, 201))
	c.shards[2].mu.Unlock()

	snap := c.Snapshot()
	if snap.Attempted != 3 || snap.Succeeded != 2 || snap.Failed != 1 {
		t.Fatalf("unexpected counts %d/%d/%d", snap.Attempted, snap.Succeeded, snap.Failed)
	}
	if snap.MinLatency != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %v", snap.MinLatency)
	}
	if snap.MaxLatency != 30*time.Millisecond {
		t.Errorf("expected max 30ms, got %v", snap.MaxLatency)
	}
	if snap.StatusCodes[500] != 1 || snap.StatusCodes[200] != 1 || snap.StatusCodes[201] != 1 {
		t.Errorf("unexpected status codes %v", snap.StatusCodes)
	}
	if snap.LatencySamples() != 2 {
		t.Errorf("expected 2 latency samples, got %d", snap.LatencySamples())
	}
}

func TestCollector_SnapshotIsIndependent(t *testing.T) {
	c := NewCollector()
	c.Record(Succeeded(time.Millisecond, 200))
	snap := c.Snapshot()

	c.Record(Succeeded(time.Millisecond, 200))
	if snap.Attempted != 1 || snap.StatusCodes[200] != 1 {
		t.Fatalf("snapshot changed after later record: %+v", snap)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	workers := 50
	requestsPerWorker := 100

	// Concurrent writers
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < requestsPerWorker; j++ {
				c.Record(Succeeded(time.Millisecond, 200))
			}
		}()
	}

	// Concurrent reader
	done := make(chan bool)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				attempted, succeeded, failed := c.Totals()
				if attempted != succeeded+failed {
					t.Errorf("torn totals: %d != %d + %d", attempted, succeeded, failed)
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(done)

	snap := c.Snapshot()
	expectedTotal := int64(workers * requestsPerWorker)
	if snap.Attempted != expectedTotal {
		t.Errorf("expected total %d, got %d", expectedTotal, snap.Attempted)
	}
}

func TestClampMicros(t *testing.T) {
	if got := clampMicros(0); got != histLowest {
		t.Errorf("expected %d, got %d", histLowest, got)
	}
	if got := clampMicros(2 * time.Hour); got != histHighest {
		t.Errorf("expected %d, got %d", histHighest, got)
	}
	if got := clampMicros(1500 * time.Microsecond); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}
}
