// ABOUTME: Error types returned by the upload gate
// ABOUTME: ValidationError is user-correctable, IOFailure wraps storage failures

package upload

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Reason says why a payload was rejected.
type Reason string

const (
	ReasonEmpty    Reason = "empty"
	ReasonTooLarge Reason = "too_large"
)

// ValidationError reports a payload the user can fix by uploading a different file.
type ValidationError struct {
	Reason Reason
	Size   int64
	Max    int64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return fmt.Sprintf("the uploaded file is empty (0 bytes, maximum %s bytes)", humanize.Comma(e.Max))
	case ReasonTooLarge:
		return fmt.Sprintf("the uploaded file is too large (%s bytes, maximum %s bytes)",
			humanize.Comma(e.Size), humanize.Comma(e.Max))
	default:
		return fmt.Sprintf("invalid upload: %s", e.Reason)
	}
}

// IOFailure reports a storage failure while committing an upload.
type IOFailure struct {
	Cause error
}

func (e *IOFailure) Error() string {
	return "failed to upload icon: " + e.Cause.Error()
}

func (e *IOFailure) Unwrap() error {
	return e.Cause
}
