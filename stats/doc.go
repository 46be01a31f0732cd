// Package stats tracks classification throughput, latency, and cache
// effectiveness. Counters live behind a mutex and are cheap enough to
// record on every request; Snapshot returns a consistent copy for
// reporting. When a meter is attached, the same counters are mirrored
// as OpenTelemetry instruments.
package stats
