package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"imgproc.szuro.net/pkg/pixel"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode reads any registered image format and returns its pixels as a
// straight-alpha RGBA8 buffer.
func Decode(r io.Reader) (*pixel.Buffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("cannot decode image: %w", err)
	}
	buf, err := FromImage(img)
	return buf, format, err
}

// FromImage converts img into a buffer, copying the pixels.
func FromImage(img image.Image) (*pixel.Buffer, error) {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return pixel.Wrap(uint32(b.Dx()), uint32(b.Dy()), nrgba.Pix)
}

// ToImage exposes buf as an image without copying.
func ToImage(buf *pixel.Buffer) *image.NRGBA {
	w, h := int(buf.Width()), int(buf.Height())
	return &image.NRGBA{
		Pix:    buf.Bytes(),
		Stride: w * pixel.Channels,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// Encode writes buf in the given format ("png", "bmp" or "tiff").
func Encode(w io.Writer, buf *pixel.Buffer, format string) error {
	img := ToImage(buf)
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromPath picks the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func ReadFile(path string) (*pixel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// WriteFile encodes buf to path. The file is written to a temporary name
// first so a failed encode never leaves a partial output behind.
func WriteFile(path string, buf *pixel.Buffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, buf, format); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
