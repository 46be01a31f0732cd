// Package cache provides the content-addressed caches in front of
// feature extraction: a two-tier feature cache (shared Redis tier with
// a local in-process fallback) and an in-process similarity cache with
// symmetric keys.
//
// The feature cache uses read-time eviction: expired entries are
// treated as misses when read, no background sweep runs. The
// similarity cache instead exposes a caller-triggered Sweep. Both
// uphold the same read contract: expired means absent.
package cache
