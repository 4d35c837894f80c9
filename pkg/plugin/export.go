package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"imgproc.szuro.net/pkg/pixel"
)

// maxParamsLen bounds the scan for the terminating NUL of the parameter
// string so a missing terminator cannot walk through the whole address space.
const maxParamsLen = 1 << 20

var diagnostics = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Process is the body of a plugin's process_image export. It checks the
// pointers and the size, exposes the host memory as a View for the duration
// of the call, runs f and converts the outcome, including a panic, into a
// status code. Nothing unwinds past Process.
func Process(width, height uint32, pix, params unsafe.Pointer, f Filter) (status int32) {
	defer func() {
		if r := recover(); r != nil {
			diagnostics.Error("filter panicked", slog.Any("panic", r))
			status = StatusPanic
		}
	}()

	if pix == nil {
		diagnostics.Error("refusing to process", slog.Any("error", ErrNullPointer))
		return StatusNullPointer
	}
	n, err := pixel.ByteLen(width, height)
	if err != nil {
		diagnostics.Error("refusing to process", slog.Any("error", err))
		return StatusOverflow
	}
	raw, err := cString(params)
	if err != nil {
		diagnostics.Error("refusing to process", slog.Any("error", err))
		return StatusBadParams
	}

	img, err := pixel.Foreign(width, height, unsafe.Slice((*byte)(pix), n))
	if err != nil {
		return StatusFor(err)
	}
	defer img.Release()

	if err := f.Apply(img, raw); err != nil {
		diagnostics.Error("filter failed", slog.Any("error", err))
		return StatusFor(err)
	}
	return StatusOK
}

// cString copies a NUL-terminated C string. A nil pointer is the empty
// string.
func cString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", nil
	}
	for n := 0; n < maxParamsLen; n++ {
		if *(*byte)(unsafe.Add(p, n)) == 0 {
			return string(unsafe.Slice((*byte)(p), n)), nil
		}
	}
	return "", fmt.Errorf("%w: parameter string longer than %d bytes", ErrParameter, maxParamsLen)
}
