package stats

import (
	"sync"
	"testing"
	"time"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := NewTracker(nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func TestTracker_AverageLatency(t *testing.T) {
	tr := newTracker(t)
	tr.RecordRequest(100 * time.Millisecond)
	tr.RecordRequest(300 * time.Millisecond)

	snap := tr.Snapshot()
	if snap.TotalRequests != 2 {
		t.Fatalf("requests = %d, want 2", snap.TotalRequests)
	}
	if snap.AvgProcessingTime != 200*time.Millisecond {
		t.Fatalf("average = %v, want 200ms", snap.AvgProcessingTime)
	}
}

func TestTracker_HitRate(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 4; i++ {
		tr.RecordRequest(10 * time.Millisecond)
	}
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheMiss()

	snap := tr.Snapshot()
	if snap.CacheHits != 3 || snap.CacheMisses != 1 {
		t.Fatalf("hits=%d misses=%d, want 3/1", snap.CacheHits, snap.CacheMisses)
	}
	if snap.CacheHitRate != 0.75 {
		t.Fatalf("hit rate = %v, want 0.75", snap.CacheHitRate)
	}
}

func TestTracker_HitRateNeedsRequests(t *testing.T) {
	tr := newTracker(t)
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheMiss()

	if rate := tr.Snapshot().CacheHitRate; rate != 0 {
		t.Fatalf("hit rate = %v, want 0 with no recorded requests", rate)
	}
}

func TestTracker_EmptySnapshot(t *testing.T) {
	snap := newTracker(t).Snapshot()
	if snap.TotalRequests != 0 || snap.AvgProcessingTime != 0 || snap.CacheHitRate != 0 {
		t.Fatalf("zero tracker produced non-zero snapshot: %+v", snap)
	}
}

func TestTracker_ConcurrentRecording(t *testing.T) {
	tr := newTracker(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.RecordRequest(10 * time.Millisecond)
			if i%2 == 0 {
				tr.RecordCacheHit()
			} else {
				tr.RecordCacheMiss()
			}
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.TotalRequests != 50 {
		t.Fatalf("requests = %d, want 50", snap.TotalRequests)
	}
	if snap.CacheHitRate != 0.5 {
		t.Fatalf("hit rate = %v, want 0.5", snap.CacheHitRate)
	}
	if snap.AvgProcessingTime != 10*time.Millisecond {
		t.Fatalf("average = %v, want 10ms", snap.AvgProcessingTime)
	}
}
