// Package errors provides unified error handling for voiceid.
// It implements structured error types with machine-readable codes,
// HTTP status mapping, and retryable detection. Every failure in the
// classification core is recoverable: callers degrade to a cheaper
// stage or a documented default rather than aborting.
package errors
