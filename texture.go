package g3d

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/internal/device"
	intImage "github.com/gogpu/g3d/internal/image"
)

// SamplerType is the shape of a texture.
type SamplerType uint8

// Sampler types.
const (
	Sampler2D SamplerType = iota
	Sampler2DArray
	SamplerCubemap
	Sampler3D
)

// String returns the sampler name.
func (s SamplerType) String() string {
	switch s {
	case Sampler2D:
		return "2D"
	case Sampler2DArray:
		return "2D_ARRAY"
	case SamplerCubemap:
		return "CUBEMAP"
	case Sampler3D:
		return "3D"
	default:
		return "Unknown"
	}
}

// TextureUsage is a set of texture usage flags.
type TextureUsage uint8

// Texture usage flags.
const (
	TextureUsageSampleable TextureUsage = 1 << iota
	TextureUsageUploadable
	TextureUsageColorAttachment
	TextureUsageDepthAttachment

	// TextureUsageDefault is used when no usage is set.
	TextureUsageDefault = TextureUsageSampleable | TextureUsageUploadable
)

func (u TextureUsage) gpu() gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&TextureUsageSampleable != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&TextureUsageUploadable != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&(TextureUsageColorAttachment|TextureUsageDepthAttachment) != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

// CubemapFace indexes the faces of a cubemap in upload order.
type CubemapFace uint8

// Cubemap faces.
const (
	FacePositiveX CubemapFace = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

// Texture is a handle to a texture.
type Texture struct{ h handle }

// IsZero reports whether t is the zero handle. Texture loaders return the
// zero handle when the engine does not support the payload's format.
func (t Texture) IsZero() bool { return t.h.isZero() }

type textureData struct {
	tex     *device.Texture
	width   uint32
	height  uint32
	depth   uint32
	levels  int
	sampler SamplerType
	format  TextureFormat
	info    textureFormatInfo
	usage   TextureUsage
	rgbm    bool

	// base holds level 0 of each layer for CPU mip generation.
	base     []*intImage.ImageBuf
	uploaded uint64 // bit per level
	mipmaps  bool
}

func (t *textureData) layers() uint32 {
	switch t.sampler {
	case SamplerCubemap:
		return 6
	case Sampler2DArray, Sampler3D:
		return t.depth
	default:
		return 1
	}
}

func (t *textureData) levelSize(level int) (uint32, uint32) {
	return max(1, t.width>>level), max(1, t.height>>level)
}

func (t *textureData) destroy() {
	t.tex.Destroy()
	t.base = nil
}

// TextureBuilder configures a Texture.
type TextureBuilder struct {
	builderState
	width   uint32
	height  uint32
	depth   uint32
	levels  int
	sampler SamplerType
	format  TextureFormat
	usage   TextureUsage
	rgbm    bool
}

// NewTextureBuilder returns a builder for a 2D RGBA8 texture with a full
// mip chain. Width and Height are required.
func NewTextureBuilder() *TextureBuilder {
	return &TextureBuilder{
		builderState: builderState{kind: "texture"},
		depth:        1,
		usage:        TextureUsageDefault,
	}
}

// Width sets the width of level 0.
func (b *TextureBuilder) Width(w uint32) *TextureBuilder {
	b.mutate()
	b.width = w
	return b
}

// Height sets the height of level 0.
func (b *TextureBuilder) Height(h uint32) *TextureBuilder {
	b.mutate()
	b.height = h
	return b
}

// Depth sets the layer count of 2D array textures or the depth of 3D
// textures.
func (b *TextureBuilder) Depth(d uint32) *TextureBuilder {
	b.mutate()
	b.depth = d
	return b
}

// Levels sets the number of mip levels. 0 (the default) or a count larger
// than the full chain means all levels.
func (b *TextureBuilder) Levels(n int) *TextureBuilder {
	b.mutate()
	b.levels = n
	return b
}

// Sampler sets the texture shape.
func (b *TextureBuilder) Sampler(s SamplerType) *TextureBuilder {
	b.mutate()
	b.sampler = s
	return b
}

// Format sets the storage format.
func (b *TextureBuilder) Format(f TextureFormat) *TextureBuilder {
	b.mutate()
	b.format = f
	return b
}

// Usage sets the usage flags.
func (b *TextureBuilder) Usage(u TextureUsage) *TextureBuilder {
	b.mutate()
	b.usage = u
	return b
}

// RGBM marks RGBA8 data as RGBM-encoded HDR.
func (b *TextureBuilder) RGBM(enabled bool) *TextureBuilder {
	b.mutate()
	b.rgbm = enabled
	return b
}

// MaxLevelCount returns the number of levels in a full mip chain.
func MaxLevelCount(width, height uint32) int {
	return intImage.LevelCount(int(width), int(height))
}

func (b *TextureBuilder) validate(e *Engine) (textureFormatInfo, error) {
	info, ok := b.format.info()
	if !ok {
		return info, fmt.Errorf("%w: texture format %d", ErrInvalidArgument, b.format)
	}
	var reason string
	switch {
	case b.width == 0:
		return info, fmt.Errorf("%w: texture width", ErrMissingField)
	case b.height == 0:
		return info, fmt.Errorf("%w: texture height", ErrMissingField)
	case b.depth == 0:
		reason = "depth is 0"
	case b.sampler > Sampler3D:
		reason = "unknown sampler"
	case (b.sampler == Sampler2D || b.sampler == SamplerCubemap) && b.depth != 1:
		reason = "depth must be 1 for " + b.sampler.String()
	case b.sampler == SamplerCubemap && b.width != b.height:
		reason = "cubemap faces must be square"
	case b.sampler == Sampler3D && info.compressed:
		reason = "3D textures cannot be compressed"
	case b.rgbm && b.format != TextureFormatRGBA8:
		reason = "RGBM requires RGBA8"
	case b.levels < 0:
		reason = "negative level count"
	case b.usage == 0:
		reason = "empty usage"
	}
	if reason != "" {
		return info, fmt.Errorf("%w: %s", ErrInvalidArgument, reason)
	}
	if !e.IsTextureFormatSupported(b.format) {
		return info, fmt.Errorf("%w: %v", ErrUnsupportedFormat, b.format)
	}
	return info, nil
}

// Build creates the texture and consumes the builder.
// Formats the engine cannot store fail with ErrUnsupportedFormat.
func (b *TextureBuilder) Build(e *Engine) (Texture, error) {
	if err := b.consume(e); err != nil {
		return Texture{}, err
	}
	info, err := b.validate(e)
	if err != nil {
		return Texture{}, err
	}

	full := MaxLevelCount(b.width, b.height)
	levels := b.levels
	if levels == 0 || levels > full {
		levels = full
	}
	data := textureData{
		width:   b.width,
		height:  b.height,
		depth:   b.depth,
		levels:  levels,
		sampler: b.sampler,
		format:  b.format,
		info:    info,
		usage:   b.usage,
		rgbm:    b.rgbm,
	}

	var total uint64
	for l := range levels {
		w, h := data.levelSize(l)
		n, _, _ := info.gpuLevelBytes(w, h)
		total += uint64(n) * uint64(data.layers())
	}
	dim := gputypes.TextureDimension2D
	if b.sampler == Sampler3D {
		dim = gputypes.TextureDimension3D
	}
	tex, err := e.dev.CreateTexture(&device.TextureDescriptor{
		Label:     e.label("texture"),
		Width:     b.width,
		Height:    b.height,
		Layers:    data.layers(),
		Levels:    uint32(levels),
		Dimension: dim,
		Format:    info.gpu,
		Usage:     b.usage.gpu(),
		SizeBytes: total,
	})
	if err != nil {
		return Texture{}, fmt.Errorf("g3d: texture: %w", err)
	}
	data.tex = tex

	Logger().Debug("g3d: texture built", "format", b.format, "sampler", b.sampler,
		"width", b.width, "height", b.height, "levels", levels)
	return Texture{h: e.textures.insert(e.serial, data)}, nil
}

func (t Texture) data(e *Engine) (*textureData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.textures.get(e.serial, t.h)
}

// TextureInfo describes a texture.
type TextureInfo struct {
	Width   uint32
	Height  uint32
	Depth   uint32
	Levels  int
	Sampler SamplerType
	Format  TextureFormat
	Usage   TextureUsage
	RGBM    bool

	// UploadedLevels is a bit set of the levels that received data.
	UploadedLevels uint64
	// MipmapsGenerated is set once GenerateMipmaps has filled the chain.
	MipmapsGenerated bool
}

// Info returns the texture's description.
func (t Texture) Info(e *Engine) (TextureInfo, error) {
	d, err := t.data(e)
	if err != nil {
		return TextureInfo{}, err
	}
	return TextureInfo{
		Width:            d.width,
		Height:           d.height,
		Depth:            d.depth,
		Levels:           d.levels,
		Sampler:          d.sampler,
		Format:           d.format,
		Usage:            d.usage,
		RGBM:             d.rgbm,
		UploadedLevels:   d.uploaded,
		MipmapsGenerated: d.mipmaps,
	}, nil
}

// checkPixels verifies that a pixel descriptor matches the texture format.
// Raw sources carry no tags and are taken to be in the natural layout.
func (d *textureData) checkPixels(px *PixelBufferDescriptor) error {
	if px == nil {
		return nil
	}
	if d.info.compressed {
		if !px.Compressed || px.CompressedFormat != d.format {
			return fmt.Errorf("%w: texture is %v", ErrFormatMismatch, d.format)
		}
		return nil
	}
	if px.Compressed {
		return fmt.Errorf("%w: compressed data for %v texture", ErrFormatMismatch, d.format)
	}
	if px.Format.Channels() != d.info.pixel.Channels() || px.Type != d.info.typ {
		return fmt.Errorf("%w: %d channels of type %d for %v texture",
			ErrFormatMismatch, px.Format.Channels(), px.Type, d.format)
	}
	if px.Format == PixelRGBM && !d.rgbm {
		return fmt.Errorf("%w: RGBM data for non-RGBM texture", ErrFormatMismatch)
	}
	return nil
}

// upload writes one layer of one level.
func (d *textureData) upload(level int, layer uint32, img []byte) error {
	w, h := d.levelSize(level)
	_, bpr, rows := d.info.gpuLevelBytes(w, h)
	if err := d.tex.WriteLevel(uint32(level), layer, d.info.expand(img), w, h, bpr, rows); err != nil {
		return fmt.Errorf("g3d: texture upload: %w", err)
	}
	if level == 0 && d.info.mippable && d.levels > 1 && d.sampler != Sampler3D {
		if d.base == nil {
			d.base = make([]*intImage.ImageBuf, d.layers())
		}
		buf, err := intImage.NewImageBuf(int(w), int(h), d.info.mip)
		if err != nil {
			return err
		}
		copy(buf.Data(), img)
		d.base[layer] = buf
	}
	return nil
}

// SetImage uploads level of a 2D, 2D array or 3D texture. For arrays and
// 3D textures the source holds every layer of the level back to back.
func (t Texture) SetImage(e *Engine, level int, src Source) error {
	d, err := t.data(e)
	if err != nil {
		return err
	}
	if d.sampler == SamplerCubemap {
		return fmt.Errorf("%w: use SetImageCube for cubemaps", ErrInvalidArgument)
	}
	if level < 0 || level >= d.levels {
		return fmt.Errorf("%w: level %d of %d", ErrInvalidArgument, level, d.levels)
	}
	return e.consume(src, func(data []byte, px *PixelBufferDescriptor) error {
		if err := d.checkPixels(px); err != nil {
			return err
		}
		w, h := d.levelSize(level)
		n := d.info.levelBytes(w, h)
		layers := d.layers()
		if len(data) < n*int(layers) {
			return fmt.Errorf("%w: %d bytes for %d layers of %d bytes",
				ErrInvalidArgument, len(data), layers, n)
		}
		for layer := range layers {
			off := int(layer) * n
			if err := d.upload(level, layer, data[off:off+n]); err != nil {
				return err
			}
		}
		d.uploaded |= 1 << level
		return nil
	})
}

// SetImageCube uploads level of a cubemap. The source holds the six faces
// in CubemapFace order. Compressed descriptors give the face stride in
// FaceSize; otherwise faces are a sixth of the data each.
func (t Texture) SetImageCube(e *Engine, level int, src Source) error {
	d, err := t.data(e)
	if err != nil {
		return err
	}
	if d.sampler != SamplerCubemap {
		return fmt.Errorf("%w: SetImageCube on %v texture", ErrInvalidArgument, d.sampler)
	}
	if level < 0 || level >= d.levels {
		return fmt.Errorf("%w: level %d of %d", ErrInvalidArgument, level, d.levels)
	}
	return e.consume(src, func(data []byte, px *PixelBufferDescriptor) error {
		if err := d.checkPixels(px); err != nil {
			return err
		}
		w, h := d.levelSize(level)
		n := d.info.levelBytes(w, h)
		stride := len(data) / 6
		if px != nil && px.Compressed {
			stride = px.FaceSize
		}
		if stride < n || 5*stride+n > len(data) {
			return fmt.Errorf("%w: %d bytes for 6 faces of %d bytes",
				ErrInvalidArgument, len(data), n)
		}
		for face := range uint32(6) {
			off := int(face) * stride
			if err := d.upload(level, face, data[off:off+n]); err != nil {
				return err
			}
		}
		d.uploaded |= 1 << level
		return nil
	})
}

// GenerateMipmaps fills levels 1 and up from level 0 with a box filter.
// Only 8-bit uncompressed formats can be filtered; other formats return
// ErrUnsupportedFormat. Level 0 of every layer must have been uploaded.
func (t Texture) GenerateMipmaps(e *Engine) error {
	d, err := t.data(e)
	if err != nil {
		return err
	}
	if !d.info.mippable {
		return fmt.Errorf("%w: cannot generate mipmaps for %v", ErrUnsupportedFormat, d.format)
	}
	if d.sampler == Sampler3D {
		return fmt.Errorf("%w: cannot generate mipmaps for 3D textures", ErrUnsupportedFormat)
	}
	if d.levels == 1 {
		d.mipmaps = true
		return nil
	}
	if len(d.base) == 0 {
		return fmt.Errorf("%w: level 0 image", ErrMissingField)
	}
	for layer, base := range d.base {
		if base == nil {
			return fmt.Errorf("%w: level 0 image of layer %d", ErrMissingField, layer)
		}
	}

	chains := make([]*intImage.MipmapChain, len(d.base))
	jobs := make([]func(), len(d.base))
	for layer, base := range d.base {
		jobs[layer] = func() { chains[layer] = intImage.GenerateMipmaps(base, d.levels) }
	}
	e.runJobs(jobs)

	var errs []error
	for layer, chain := range chains {
		for level := 1; level < chain.NumLevels(); level++ {
			errs = append(errs, d.upload(level, uint32(layer), chain.Level(level).Data()))
		}
		chain.Release()
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	d.uploaded |= 1<<d.levels - 1
	d.mipmaps = true
	Logger().Debug("g3d: mipmaps generated", "levels", d.levels, "layers", len(d.base))
	return nil
}

// DestroyTexture destroys t.
func (e *Engine) DestroyTexture(t Texture) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	d, err := e.textures.remove(e.serial, t.h)
	if err != nil {
		return err
	}
	d.destroy()
	return nil
}
