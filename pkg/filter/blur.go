package filter

import (
	"fmt"

	"imgproc.szuro.net/pkg/pixel"
	"imgproc.szuro.net/pkg/plugin"
)

// BlurParams configures BoxBlur.
type BlurParams struct {
	Radius     *uint32 `json:"radius"`
	Iterations *uint   `json:"iterations"`
}

// Validate reports missing fields.
func (p BlurParams) Validate() error {
	if p.Radius == nil {
		return fmt.Errorf("missing field %q", "radius")
	}
	if p.Iterations == nil {
		return fmt.Errorf("missing field %q", "iterations")
	}
	return nil
}

// BoxBlur replaces every pixel with the per-channel mean of the square
// neighbourhood of the given radius, repeated iterations times.
//
// Neighbours outside the image are left out of both the sum and the count,
// and the mean is truncated. Every pass reads a snapshot taken when the pass
// starts, so pass k sees exactly the output of pass k-1. The size is checked
// before the first access and the buffer is untouched on error.
func BoxBlur(pix []byte, width, height, radius uint32, iterations uint) error {
	n, err := pixel.ByteLen(width, height)
	if err != nil {
		return err
	}
	if len(pix) != n {
		return fmt.Errorf("%w: got %d bytes, want %d", pixel.ErrSizeMismatch, len(pix), n)
	}
	if n == 0 || iterations == 0 {
		return nil
	}

	w, h := int(width), int(height)
	// Any radius past the larger side covers the whole image.
	r := int(min(radius, max(width, height)))

	snapshot := make([]byte, n)
	for range iterations {
		copy(snapshot, pix)
		boxBlurPass(snapshot, pix, w, h, r)
	}
	return nil
}

func boxBlurPass(src, dst []byte, w, h, r int) {
	stride := w * pixel.Channels
	for y := range h {
		y0, y1 := max(y-r, 0), min(y+r, h-1)
		for x := range w {
			x0, x1 := max(x-r, 0), min(x+r, w-1)

			var sum [pixel.Channels]uint64
			for ny := y0; ny <= y1; ny++ {
				row := src[ny*stride : (ny+1)*stride]
				for nx := x0; nx <= x1; nx++ {
					px := row[nx*pixel.Channels : (nx+1)*pixel.Channels]
					sum[0] += uint64(px[0])
					sum[1] += uint64(px[1])
					sum[2] += uint64(px[2])
					sum[3] += uint64(px[3])
				}
			}

			count := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			out := dst[y*stride+x*pixel.Channels : y*stride+(x+1)*pixel.Channels]
			for c := range pixel.Channels {
				out[c] = byte(sum[c] / count)
			}
		}
	}
}

// Blur is the box blur filter, decoding BlurParams from JSON.
type Blur struct{}

func (Blur) Name() string { return "blur" }

// Apply implements plugin.Filter.
func (Blur) Apply(img *pixel.View, params string) error {
	var p BlurParams
	if err := plugin.DecodeParams(params, &p); err != nil {
		return err
	}
	return BoxBlur(img.Pix, img.Width, img.Height, *p.Radius, *p.Iterations)
}
