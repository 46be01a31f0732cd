// Package redis provides the go-redis client wrapper backing the
// external feature-cache tier. The tier is optional infrastructure: a
// missing or unreachable server never fails callers, the cache layer
// degrades to its local tier instead.
package redis
