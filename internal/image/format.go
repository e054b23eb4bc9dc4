// Package image holds CPU-side pixel buffers used while preparing texture
// uploads: decoding PNG and JPEG payloads, channel conversion and mip-chain
// downsampling.
package image

// Format represents an 8-bit-per-channel pixel layout.
type Format uint8

const (
	// FormatGray8 is a single 8-bit channel.
	FormatGray8 Format = iota

	// FormatGrayAlpha8 is two 8-bit channels.
	FormatGrayAlpha8

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA, not premultiplied.
	// RGBM-encoded images use this layout with M stored in alpha.
	FormatRGBA8

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	BytesPerPixel int
	HasAlpha      bool
	IsGrayscale   bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8:      {BytesPerPixel: 1, IsGrayscale: true},
	FormatGrayAlpha8: {BytesPerPixel: 2, HasAlpha: true, IsGrayscale: true},
	FormatRGB8:       {BytesPerPixel: 3},
	FormatRGBA8:      {BytesPerPixel: 4, HasAlpha: true},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
// It is also the channel count, since every channel is one byte.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// WithoutAlpha returns the format with the alpha channel removed.
func (f Format) WithoutAlpha() Format {
	switch f {
	case FormatGrayAlpha8:
		return FormatGray8
	case FormatRGBA8:
		return FormatRGB8
	default:
		return f
	}
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatGray8:
		return "Gray8"
	case FormatGrayAlpha8:
		return "GrayAlpha8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	default:
		return "Unknown"
	}
}
