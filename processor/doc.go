// Package processor turns raw audio snippets into feature vectors,
// cache-first. Single snippets run inline on the caller's goroutine;
// batches fan out over a fixed-size worker pool so a large batch cannot
// exhaust goroutines. Failed batch items surface as nil results in
// their original positions rather than failing the whole batch.
package processor
