// Package pixel defines the RGBA8 pixel buffer exchanged between the imgproc
// host and its filter plugins, together with the checked size arithmetic
// every party must agree on before touching the bytes.
//
// A Buffer is owned by the host. A filter call borrows it exclusively through
// Borrow and must give it back with Release before anything else may read or
// write the bytes again.
package pixel

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"
)

// Channels is the number of bytes per pixel (R, G, B, A).
const Channels = 4

// MaxBytes is the largest pixel buffer accepted at the plugin boundary.
// Plugins are allowed to index the buffer with signed 32-bit integers.
const MaxBytes = math.MaxInt32

var (
	// ErrOverflow is returned when width*height*4 does not fit in MaxBytes.
	ErrOverflow = errors.New("width x height overflow")
	// ErrSizeMismatch is returned when a byte slice does not match its dimensions.
	ErrSizeMismatch = errors.New("pixel data length does not match dimensions")
	// ErrBufferBusy is returned when a buffer is borrowed twice.
	ErrBufferBusy = errors.New("pixel buffer is already borrowed")
)

// ByteLen returns width*height*Channels, or ErrOverflow if the product
// exceeds MaxBytes.
func ByteLen(width, height uint32) (int, error) {
	hi, pixels := bits.Mul64(uint64(width), uint64(height))
	if hi != 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrOverflow, width, height)
	}
	hi, n := bits.Mul64(pixels, Channels)
	if hi != 0 || n > MaxBytes {
		return 0, fmt.Errorf("%w: %dx%d", ErrOverflow, width, height)
	}
	return int(n), nil
}

// RowLen returns the number of bytes in one row of the given width.
func RowLen(width uint32) (int, error) {
	return ByteLen(width, 1)
}

// Offset returns the byte offset of pixel (x, y) in a buffer of the given
// width and height. Coordinates outside the image are an error.
func Offset(x, y, width, height uint32) (int, error) {
	if x >= width || y >= height {
		return 0, fmt.Errorf("pixel (%d,%d) outside %dx%d", x, y, width, height)
	}
	hi, row := bits.Mul64(uint64(y), uint64(width))
	if hi != 0 {
		return 0, ErrOverflow
	}
	idx, carry := bits.Add64(row, uint64(x), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	hi, off := bits.Mul64(idx, Channels)
	if hi != 0 || off > MaxBytes-Channels {
		return 0, ErrOverflow
	}
	return int(off), nil
}

// Buffer is a flat, row-major RGBA8 image.
type Buffer struct {
	width  uint32
	height uint32
	data   []byte

	borrowed atomic.Bool
}

// New allocates a zeroed buffer of the given dimensions.
func New(width, height uint32) (*Buffer, error) {
	n, err := ByteLen(width, height)
	if err != nil {
		return nil, err
	}
	return &Buffer{width: width, height: height, data: make([]byte, n)}, nil
}

// Wrap adopts data as the pixels of a width x height image without copying.
func Wrap(width, height uint32, data []byte) (*Buffer, error) {
	n, err := ByteLen(width, height)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), n)
	}
	return &Buffer{width: width, height: height, data: data}, nil
}

func (b *Buffer) Width() uint32  { return b.width }
func (b *Buffer) Height() uint32 { return b.height }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the underlying pixels. It must not be used while a borrow is
// outstanding.
func (b *Buffer) Bytes() []byte { return b.data }

// Borrow hands out exclusive access to the pixels. The returned View is
// valid until Release is called on it.
func (b *Buffer) Borrow() (*View, error) {
	if !b.borrowed.CompareAndSwap(false, true) {
		return nil, ErrBufferBusy
	}
	return &View{owner: b, Width: b.width, Height: b.height, Pix: b.data}, nil
}

// Foreign wraps pixels that belong to someone else, typically memory handed
// over by the host through the plugin ABI. Release on such a view only drops
// the reference.
func Foreign(width, height uint32, pix []byte) (*View, error) {
	n, err := ByteLen(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pix), n)
	}
	return &View{Width: width, Height: height, Pix: pix}, nil
}

// View is a borrowed window onto pixels, scoped to a single filter call.
type View struct {
	owner  *Buffer
	Width  uint32
	Height uint32
	Pix    []byte
}

// Release returns the pixels to the owning buffer. Calling it more than once
// is a no-op.
func (v *View) Release() {
	v.Pix = nil
	if v.owner == nil {
		return
	}
	v.owner.borrowed.Store(false)
	v.owner = nil
}
