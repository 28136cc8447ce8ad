package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the relay's error taxonomy. Callers classify
// failures with errors.Is and map them to transport status codes.
var (
	// ErrInvalidImage marks a malformed, oversized, or unsupported upload.
	// User-correctable; reported as a 4xx.
	ErrInvalidImage = errors.New("invalid image")

	// ErrExtractionTimeout marks an abandoned external call that exceeded
	// the configured bound. No partial result is salvaged.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrExtractionFailed marks an external-service error or an
	// unparseable response payload.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrIndexOutOfRange marks a cell edit outside current table bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// InvalidImageError wraps a validation failure with context.
func InvalidImageError(msg string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidImage, msg, cause)
	}
	return fmt.Errorf("%w: %s", ErrInvalidImage, msg)
}

// ExtractionError wraps an external-service failure with context.
func ExtractionError(msg string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, msg, cause)
	}
	return fmt.Errorf("%w: %s", ErrExtractionFailed, msg)
}

// TimeoutError wraps an abandoned external call with context.
func TimeoutError(msg string) error {
	return fmt.Errorf("%w: %s", ErrExtractionTimeout, msg)
}

// IndexOutOfRangeError reports an out-of-bounds cell edit.
func IndexOutOfRangeError(axis string, index, size int) error {
	return fmt.Errorf("%w: %s index %d outside [0, %d)", ErrIndexOutOfRange, axis, index, size)
}
