package stats

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Snapshot is a consistent copy of the tracker counters.
type Snapshot struct {
	TotalRequests     int64         `json:"total_requests"`
	AvgProcessingTime time.Duration `json:"avg_processing_time"`
	CacheHits         int64         `json:"cache_hits"`
	CacheMisses       int64         `json:"cache_misses"`
	CacheHitRate      float64       `json:"cache_hit_rate"`
}

// Tracker accumulates request and cache counters. The zero value is
// not usable; construct with NewTracker.
type Tracker struct {
	mu          sync.Mutex
	requests    int64
	avgLatency  time.Duration
	cacheHits   int64
	cacheMisses int64

	requestCounter   metric.Int64Counter
	latencyHistogram metric.Float64Histogram
	hitCounter       metric.Int64Counter
	missCounter      metric.Int64Counter
}

// NewTracker creates a tracker. Pass a nil meter to skip the
// OpenTelemetry mirror; counting still works.
func NewTracker(meter metric.Meter) (*Tracker, error) {
	t := &Tracker{}
	if meter == nil {
		return t, nil
	}

	var err error
	t.requestCounter, err = meter.Int64Counter("voiceid.requests",
		metric.WithDescription("Classification requests processed"))
	if err != nil {
		return nil, err
	}
	t.latencyHistogram, err = meter.Float64Histogram("voiceid.request.duration",
		metric.WithDescription("Classification request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	t.hitCounter, err = meter.Int64Counter("voiceid.cache.hits",
		metric.WithDescription("Feature cache hits"))
	if err != nil {
		return nil, err
	}
	t.missCounter, err = meter.Int64Counter("voiceid.cache.misses",
		metric.WithDescription("Feature cache misses"))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RecordRequest counts one processed request and folds its latency into
// the running average.
func (t *Tracker) RecordRequest(latency time.Duration) {
	t.mu.Lock()
	t.requests++
	// Incremental mean keeps the average exact without storing samples.
	t.avgLatency += (latency - t.avgLatency) / time.Duration(t.requests)
	t.mu.Unlock()

	if t.requestCounter != nil {
		ctx := context.Background()
		t.requestCounter.Add(ctx, 1)
		t.latencyHistogram.Record(ctx, float64(latency)/float64(time.Millisecond))
	}
}

// RecordCacheHit counts one feature cache hit.
func (t *Tracker) RecordCacheHit() {
	t.mu.Lock()
	t.cacheHits++
	t.mu.Unlock()

	if t.hitCounter != nil {
		t.hitCounter.Add(context.Background(), 1)
	}
}

// RecordCacheMiss counts one feature cache miss.
func (t *Tracker) RecordCacheMiss() {
	t.mu.Lock()
	t.cacheMisses++
	t.mu.Unlock()

	if t.missCounter != nil {
		t.missCounter.Add(context.Background(), 1)
	}
}

// Snapshot returns a consistent copy of all counters. The hit rate is
// hits over total requests, 0 when no requests have been recorded yet.
// Cache lookups made outside a classification request (batch feature
// extraction) still count as hits or misses, so the ratio can exceed 1
// under batch-heavy workloads.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		TotalRequests:     t.requests,
		AvgProcessingTime: t.avgLatency,
		CacheHits:         t.cacheHits,
		CacheMisses:       t.cacheMisses,
	}
	if t.requests > 0 {
		snap.CacheHitRate = float64(t.cacheHits) / float64(t.requests)
	}
	return snap
}
