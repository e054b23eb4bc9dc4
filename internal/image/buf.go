package image

import "errors"

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("image: invalid format")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")
)

// ImageBuf is a tightly packed pixel buffer: rows follow each other with no
// padding, which is the layout texture uploads expect.
type ImageBuf struct {
	data   []byte
	width  int
	height int
	format Format
}

// NewImageBuf creates a new zeroed image buffer.
func NewImageBuf(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	return &ImageBuf{
		data:   make([]byte, format.ImageBytes(width, height)),
		width:  width,
		height: height,
		format: format,
	}, nil
}

// FromRaw creates an ImageBuf over existing data without copying.
// The caller must keep data unchanged for the lifetime of the ImageBuf.
func FromRaw(data []byte, width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	n := format.ImageBytes(width, height)
	if len(data) < n {
		return nil, ErrDataTooSmall
	}
	return &ImageBuf{data: data[:n], width: width, height: height, format: format}, nil
}

// Clone creates a deep copy of the image buffer.
func (b *ImageBuf) Clone() *ImageBuf {
	return &ImageBuf{
		data:   append([]byte(nil), b.data...),
		width:  b.width,
		height: b.height,
		format: b.format,
	}
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Format returns the pixel format.
func (b *ImageBuf) Format() Format { return b.format }

// Stride returns the number of bytes per row.
func (b *ImageBuf) Stride() int { return b.format.RowBytes(b.width) }

// Data returns the raw pixel data slice.
func (b *ImageBuf) Data() []byte { return b.data }

// ByteSize returns the total size of the image data in bytes.
func (b *ImageBuf) ByteSize() int { return len(b.data) }

// RowBytes returns a slice of the pixel data for row y, or nil when y is out
// of bounds.
func (b *ImageBuf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	stride := b.Stride()
	return b.data[y*stride : (y+1)*stride]
}

// PixelOffset returns the byte offset of pixel (x, y), or -1 when outside
// the image.
func (b *ImageBuf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.Stride() + x*b.format.BytesPerPixel()
}

// GetRGBA returns the color at (x, y).
// Grayscale formats replicate gray into r, g and b. Formats without alpha
// report a=255. Returns (0,0,0,0) if coordinates are out of bounds.
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off:]
	switch b.format {
	case FormatGray8:
		return p[0], p[0], p[0], 255
	case FormatGrayAlpha8:
		return p[0], p[0], p[0], p[1]
	case FormatRGB8:
		return p[0], p[1], p[2], 255
	case FormatRGBA8:
		return p[0], p[1], p[2], p[3]
	default:
		return 0, 0, 0, 0
	}
}

// SetRGBA sets the color at (x, y).
// Grayscale formats store the luminance of r, g and b.
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	p := b.data[off:]
	switch b.format {
	case FormatGray8:
		p[0] = luminance(r, g, bl)
	case FormatGrayAlpha8:
		p[0] = luminance(r, g, bl)
		p[1] = a
	case FormatRGB8:
		p[0], p[1], p[2] = r, g, bl
	case FormatRGBA8:
		p[0], p[1], p[2], p[3] = r, g, bl, a
	}
	return nil
}

// luminance uses the Rec. 601 weights.
func luminance(r, g, b uint8) uint8 {
	return uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)
}

// Clear sets all pixels to zero.
func (b *ImageBuf) Clear() {
	clear(b.data)
}

// Convert returns the image in the requested format.
// The receiver is returned unchanged when it already has that format.
// Dropping alpha discards the channel; adding alpha sets it to 255.
func (b *ImageBuf) Convert(f Format) (*ImageBuf, error) {
	if !f.IsValid() {
		return nil, ErrInvalidFormat
	}
	if f == b.format {
		return b, nil
	}
	dst, err := NewImageBuf(b.width, b.height, f)
	if err != nil {
		return nil, err
	}
	if b.format == FormatRGBA8 && f == FormatRGB8 {
		for i, j := 0, 0; i < len(b.data); i, j = i+4, j+3 {
			copy(dst.data[j:j+3], b.data[i:i+3])
		}
		return dst, nil
	}
	for y := range b.height {
		for x := range b.width {
			r, g, bl, a := b.GetRGBA(x, y)
			_ = dst.SetRGBA(x, y, r, g, bl, a)
		}
	}
	return dst, nil
}
