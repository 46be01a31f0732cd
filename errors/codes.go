package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Extraction errors
const (
	// ErrCodeAudioTooShort indicates the signal carries less than the
	// minimum duration needed for a stable spectral estimate.
	ErrCodeAudioTooShort ErrorCode = "AUDIO_TOO_SHORT"
	// ErrCodeCodecUnavailable indicates the external transcoding
	// collaborator is not installed or not reachable.
	ErrCodeCodecUnavailable ErrorCode = "CODEC_UNAVAILABLE"
	// ErrCodeAudioDecodeFailed indicates the audio payload could not be
	// decoded into a PCM signal.
	ErrCodeAudioDecodeFailed ErrorCode = "AUDIO_DECODE_FAILED"
)

// Recoverable infrastructure errors
const (
	// ErrCodeCacheUnavailable indicates the external cache tier failed;
	// callers fall back to the local tier.
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// ErrCodeProfileReloadFailed indicates a profile reload failed; the
	// previous profile set stays in effect.
	ErrCodeProfileReloadFailed ErrorCode = "PROFILE_RELOAD_FAILED"
	// ErrCodeClassifierUnavailable indicates no trained classifier
	// artifact is loaded; the cascade skips the model stage.
	ErrCodeClassifierUnavailable ErrorCode = "CLASSIFIER_UNAVAILABLE"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeCacheUnavailable:      true,
	ErrCodeProfileReloadFailed:   true,
	ErrCodeClassifierUnavailable: true,
	ErrCodeCodecUnavailable:      true,
	ErrCodeTimeout:               true,
	ErrCodeExternalService:       true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
