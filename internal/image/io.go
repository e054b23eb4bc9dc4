package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// DecodePNG decodes a PNG payload into an RGBA8 buffer.
func DecodePNG(data []byte) (*ImageBuf, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image: decode PNG: %w", err)
	}
	return FromStdImage(img), nil
}

// DecodeJPEG decodes a JPEG payload into an RGBA8 buffer.
func DecodeJPEG(data []byte) (*ImageBuf, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image: decode JPEG: %w", err)
	}
	return FromStdImage(img), nil
}

// FromStdImage creates an RGBA8 ImageBuf from a standard library image.
// Colors are stored non-premultiplied.
func FromStdImage(img image.Image) *ImageBuf {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*width || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &ImageBuf{
		data:   nrgba.Pix[:4*width*height],
		width:  width,
		height: height,
		format: FormatRGBA8,
	}
}

// ToStdImage converts the ImageBuf to an *image.NRGBA.
func (b *ImageBuf) ToStdImage() *image.NRGBA {
	rgba, _ := b.Convert(FormatRGBA8)
	out := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(out.Pix, rgba.data)
	return out
}

// EncodePNG encodes the image as PNG to the given writer.
func (b *ImageBuf) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.ToStdImage()); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// EncodeJPEG encodes the image as JPEG with the given quality (1-100).
func (b *ImageBuf) EncodeJPEG(w io.Writer, quality int) error {
	quality = min(max(quality, 1), 100)
	if err := jpeg.Encode(w, b.ToStdImage(), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("image: encode JPEG: %w", err)
	}
	return nil
}
