package plugin

import (
	"errors"
	"fmt"

	"imgproc.szuro.net/pkg/pixel"
)

// Status codes returned by process_image.
const (
	StatusOK          int32 = 0
	StatusFailed      int32 = -1
	StatusNullPointer int32 = -2
	StatusOverflow    int32 = -3
	StatusBadParams   int32 = -4
	StatusPanic       int32 = -5
)

var (
	// ErrParameter marks a malformed or incomplete parameter string.
	ErrParameter = errors.New("invalid filter parameters")
	// ErrNullPointer is reported when the pixel pointer is NULL.
	ErrNullPointer = errors.New("null pixel pointer")
)

// StatusError is a failure reported by a plugin through its return value.
type StatusError struct {
	Status int32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plugin reported failure: %s (status %d)", StatusText(e.Status), e.Status)
}

// Is lets errors.Is match a StatusError against the sentinel the status
// code stands for.
func (e *StatusError) Is(target error) bool {
	switch e.Status {
	case StatusNullPointer:
		return target == ErrNullPointer
	case StatusOverflow:
		return target == pixel.ErrOverflow
	case StatusBadParams:
		return target == ErrParameter
	}
	return false
}

// StatusText returns a short description of a status code.
func StatusText(status int32) string {
	switch {
	case status == StatusOK:
		return "ok"
	case status == StatusNullPointer:
		return "null pixel pointer"
	case status == StatusOverflow:
		return "size overflow"
	case status == StatusBadParams:
		return "malformed parameters"
	case status == StatusPanic:
		return "plugin panicked"
	case status < 0:
		return "failed"
	default:
		return "non-conforming status"
	}
}

// StatusFor maps an error returned by a Filter to the status code sent back
// across the ABI.
func StatusFor(err error) int32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNullPointer):
		return StatusNullPointer
	case errors.Is(err, pixel.ErrOverflow):
		return StatusOverflow
	case errors.Is(err, ErrParameter):
		return StatusBadParams
	default:
		return StatusFailed
	}
}

// ErrorFor is the inverse of StatusFor as seen by the host: nil for
// non-negative statuses, a *StatusError otherwise.
func ErrorFor(status int32) error {
	if status >= 0 {
		return nil
	}
	return &StatusError{Status: status}
}
