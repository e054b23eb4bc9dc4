package g3d

import (
	"github.com/gogpu/gputypes"

	intImage "github.com/gogpu/g3d/internal/image"
)

// TextureFormat is the storage format of a texture.
// The zero value is TextureFormatRGBA8.
type TextureFormat uint8

// Uncompressed formats.
const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatR8
	TextureFormatRG8
	TextureFormatRGB8
	TextureFormatSRGB8
	TextureFormatSRGB8A8
	TextureFormatR32F
	TextureFormatRGB16F
	TextureFormatRGBA16F
	TextureFormatRGB32F
	TextureFormatRGBA32F
	TextureFormatR11FG11FB10F
)

// Block-compressed formats. All use 4x4 blocks.
const (
	TextureFormatETC2RGB8 TextureFormat = iota + 32
	TextureFormatETC2SRGB8
	TextureFormatETC2EACRGBA8
	TextureFormatETC2EACSRGBA8
	TextureFormatDXT1RGB
	TextureFormatDXT1RGBA
	TextureFormatDXT5RGBA
	TextureFormatASTC4x4RGBA
	TextureFormatASTC4x4SRGB8A8
)

type textureFormatInfo struct {
	name string
	gpu  gputypes.TextureFormat

	// Uncompressed layout of source pixels.
	pixel PixelDataFormat
	typ   PixelDataType

	compressed bool
	blockBytes int

	// mip is the CPU layout used for mip generation; mippable is false for
	// formats that cannot be filtered on the CPU.
	mip      intImage.Format
	mippable bool
}

var textureFormats = map[TextureFormat]textureFormatInfo{
	TextureFormatRGBA8:   {name: "RGBA8", gpu: gputypes.TextureFormatRGBA8Unorm, pixel: PixelRGBA, mip: intImage.FormatRGBA8, mippable: true},
	TextureFormatR8:      {name: "R8", gpu: gputypes.TextureFormatR8Unorm, pixel: PixelR, mip: intImage.FormatGray8, mippable: true},
	TextureFormatRG8:     {name: "RG8", gpu: gputypes.TextureFormatRG8Unorm, pixel: PixelRG, mip: intImage.FormatGrayAlpha8, mippable: true},
	TextureFormatRGB8:    {name: "RGB8", gpu: gputypes.TextureFormatRGBA8Unorm, pixel: PixelRGB, mip: intImage.FormatRGB8, mippable: true},
	TextureFormatSRGB8:   {name: "SRGB8", gpu: gputypes.TextureFormatRGBA8UnormSrgb, pixel: PixelRGB, mip: intImage.FormatRGB8, mippable: true},
	TextureFormatSRGB8A8: {name: "SRGB8_A8", gpu: gputypes.TextureFormatRGBA8UnormSrgb, pixel: PixelRGBA, mip: intImage.FormatRGBA8, mippable: true},
	TextureFormatR32F:    {name: "R32F", gpu: gputypes.TextureFormatR32Float, pixel: PixelR, typ: PixelFloat},
	TextureFormatRGB16F:  {name: "RGB16F", gpu: gputypes.TextureFormatRGBA16Float, pixel: PixelRGB, typ: PixelHalf},
	TextureFormatRGBA16F: {name: "RGBA16F", gpu: gputypes.TextureFormatRGBA16Float, pixel: PixelRGBA, typ: PixelHalf},
	TextureFormatRGB32F:  {name: "RGB32F", gpu: gputypes.TextureFormatRGBA32Float, pixel: PixelRGB, typ: PixelFloat},
	TextureFormatRGBA32F: {name: "RGBA32F", gpu: gputypes.TextureFormatRGBA32Float, pixel: PixelRGBA, typ: PixelFloat},
	// Packed float formats have no upload path.
	TextureFormatR11FG11FB10F: {name: "R11F_G11F_B10F", gpu: gputypes.TextureFormatUndefined, pixel: PixelRGB, typ: PixelFloat},

	TextureFormatETC2RGB8:       {name: "ETC2_RGB8", gpu: gputypes.TextureFormatETC2RGB8Unorm, compressed: true, blockBytes: 8},
	TextureFormatETC2SRGB8:      {name: "ETC2_SRGB8", gpu: gputypes.TextureFormatETC2RGB8UnormSrgb, compressed: true, blockBytes: 8},
	TextureFormatETC2EACRGBA8:   {name: "ETC2_EAC_RGBA8", gpu: gputypes.TextureFormatETC2RGBA8Unorm, compressed: true, blockBytes: 16},
	TextureFormatETC2EACSRGBA8:  {name: "ETC2_EAC_SRGBA8", gpu: gputypes.TextureFormatETC2RGBA8UnormSrgb, compressed: true, blockBytes: 16},
	TextureFormatDXT1RGB:        {name: "DXT1_RGB", gpu: gputypes.TextureFormatBC1RGBAUnorm, compressed: true, blockBytes: 8},
	TextureFormatDXT1RGBA:       {name: "DXT1_RGBA", gpu: gputypes.TextureFormatBC1RGBAUnorm, compressed: true, blockBytes: 8},
	TextureFormatDXT5RGBA:       {name: "DXT5_RGBA", gpu: gputypes.TextureFormatBC3RGBAUnorm, compressed: true, blockBytes: 16},
	TextureFormatASTC4x4RGBA:    {name: "RGBA_ASTC_4x4", gpu: gputypes.TextureFormatASTC4x4Unorm, compressed: true, blockBytes: 16},
	TextureFormatASTC4x4SRGB8A8: {name: "SRGB8_ALPHA8_ASTC_4x4", gpu: gputypes.TextureFormatASTC4x4UnormSrgb, compressed: true, blockBytes: 16},
}

func (f TextureFormat) info() (textureFormatInfo, bool) {
	info, ok := textureFormats[f]
	return info, ok
}

// String returns the format name.
func (f TextureFormat) String() string {
	if info, ok := f.info(); ok {
		return info.name
	}
	return "Unknown"
}

// IsCompressed reports whether f is block-compressed.
func (f TextureFormat) IsCompressed() bool {
	info, ok := f.info()
	return ok && info.compressed
}

// PixelLayout returns the pixel format and type expected by SetImage for
// uncompressed formats.
func (f TextureFormat) PixelLayout() (PixelDataFormat, PixelDataType) {
	info, _ := f.info()
	return info.pixel, info.typ
}

// srcPixelBytes is the size of one source pixel.
func (i *textureFormatInfo) srcPixelBytes() int {
	return i.pixel.Channels() * i.typ.Size()
}

// gpuPixelBytes is the size of one stored pixel. Three-channel formats are
// stored with four channels.
func (i *textureFormatInfo) gpuPixelBytes() int {
	if i.pixel.Channels() == 3 {
		return 4 * i.typ.Size()
	}
	return i.srcPixelBytes()
}

// levelBytes returns the size of one source image of the given size.
func (i *textureFormatInfo) levelBytes(w, h uint32) int {
	if i.compressed {
		return int((w+3)/4) * int((h+3)/4) * i.blockBytes
	}
	return int(w) * int(h) * i.srcPixelBytes()
}

// gpuLevelBytes returns the size of one stored image and its row pitch and
// row count as the device expects them.
func (i *textureFormatInfo) gpuLevelBytes(w, h uint32) (size int, bytesPerRow, rows uint32) {
	if i.compressed {
		bytesPerRow = (w + 3) / 4 * uint32(i.blockBytes)
		rows = (h + 3) / 4
	} else {
		bytesPerRow = w * uint32(i.gpuPixelBytes())
		rows = h
	}
	return int(bytesPerRow) * int(rows), bytesPerRow, rows
}

// expand converts source pixels to the stored layout, adding an opaque
// fourth channel to three-channel data.
func (i *textureFormatInfo) expand(src []byte) []byte {
	if i.compressed || i.pixel.Channels() != 3 {
		return src
	}
	comp := i.typ.Size()
	var one []byte
	switch i.typ {
	case PixelHalf:
		one = []byte{0x00, 0x3C}
	case PixelFloat:
		one = []byte{0x00, 0x00, 0x80, 0x3F}
	default:
		one = []byte{0xFF}
	}
	n := len(src) / (3 * comp)
	dst := make([]byte, 0, n*4*comp)
	for p := range n {
		dst = append(dst, src[p*3*comp:(p+1)*3*comp]...)
		dst = append(dst, one...)
	}
	return dst
}
