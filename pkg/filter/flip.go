package filter

import (
	"fmt"

	"imgproc.szuro.net/pkg/pixel"
	"imgproc.szuro.net/pkg/plugin"
)

// FlipParams configures Mirror.
type FlipParams struct {
	Vertical   *bool `json:"vertical"`
	Horizontal *bool `json:"horizontal"`
}

func (p FlipParams) Validate() error {
	if p.Vertical == nil {
		return fmt.Errorf("missing field %q", "vertical")
	}
	if p.Horizontal == nil {
		return fmt.Errorf("missing field %q", "horizontal")
	}
	return nil
}

// FlipHorizontal mirrors every row in place: pixel x trades places with
// pixel width-1-x, all four channels together.
func FlipHorizontal(pix []byte, width, height uint32) error {
	if err := checkLen(pix, width, height); err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return nil
	}
	for y := range height {
		for x := range width / 2 {
			left, err := pixel.Offset(x, y, width, height)
			if err != nil {
				return err
			}
			right, err := pixel.Offset(width-1-x, y, width, height)
			if err != nil {
				return err
			}
			for c := range pixel.Channels {
				pix[left+c], pix[right+c] = pix[right+c], pix[left+c]
			}
		}
	}
	return nil
}

// FlipVertical swaps row y with row height-1-y in place.
func FlipVertical(pix []byte, width, height uint32) error {
	if err := checkLen(pix, width, height); err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return nil
	}
	rowLen, err := pixel.RowLen(width)
	if err != nil {
		return err
	}
	tmp := make([]byte, rowLen)
	for y := range height / 2 {
		top, err := pixel.Offset(0, y, width, height)
		if err != nil {
			return err
		}
		bottom, err := pixel.Offset(0, height-1-y, width, height)
		if err != nil {
			return err
		}
		topRow := pix[top : top+rowLen]
		bottomRow := pix[bottom : bottom+rowLen]
		copy(tmp, topRow)
		copy(topRow, bottomRow)
		copy(bottomRow, tmp)
	}
	return nil
}

// Flip applies the vertical flip first and then the horizontal flip to its
// result.
func Flip(pix []byte, width, height uint32, vertical, horizontal bool) error {
	if vertical {
		if err := FlipVertical(pix, width, height); err != nil {
			return err
		}
	}
	if horizontal {
		if err := FlipHorizontal(pix, width, height); err != nil {
			return err
		}
	}
	return nil
}

func checkLen(pix []byte, width, height uint32) error {
	n, err := pixel.ByteLen(width, height)
	if err != nil {
		return err
	}
	if len(pix) != n {
		return fmt.Errorf("%w: got %d bytes, want %d", pixel.ErrSizeMismatch, len(pix), n)
	}
	return nil
}

// Mirror is the flip filter, decoding FlipParams from JSON.
type Mirror struct{}

func (Mirror) Name() string { return "mirror" }

// Apply implements plugin.Filter.
func (Mirror) Apply(img *pixel.View, params string) error {
	var p FlipParams
	if err := plugin.DecodeParams(params, &p); err != nil {
		return err
	}
	return Flip(img.Pix, img.Width, img.Height, *p.Vertical, *p.Horizontal)
}
