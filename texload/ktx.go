// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texload

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/internal/ktx"
)

// glFormats maps KTX internal formats to texture formats.
var glFormats = map[uint32]g3d.TextureFormat{
	ktx.GLR8:           g3d.TextureFormatR8,
	ktx.GLRG8:          g3d.TextureFormatRG8,
	ktx.GLRGB8:         g3d.TextureFormatRGB8,
	ktx.GLSRGB8:        g3d.TextureFormatSRGB8,
	ktx.GLRGBA8:        g3d.TextureFormatRGBA8,
	ktx.GLSRGB8Alpha8:  g3d.TextureFormatSRGB8A8,
	ktx.GLR32F:         g3d.TextureFormatR32F,
	ktx.GLRGB16F:       g3d.TextureFormatRGB16F,
	ktx.GLRGBA16F:      g3d.TextureFormatRGBA16F,
	ktx.GLRGB32F:       g3d.TextureFormatRGB32F,
	ktx.GLRGBA32F:      g3d.TextureFormatRGBA32F,
	ktx.GLR11FG11FB10F: g3d.TextureFormatR11FG11FB10F,

	ktx.GLCompressedRGB8ETC2:           g3d.TextureFormatETC2RGB8,
	ktx.GLCompressedSRGB8ETC2:          g3d.TextureFormatETC2SRGB8,
	ktx.GLCompressedRGBA8ETC2EAC:       g3d.TextureFormatETC2EACRGBA8,
	ktx.GLCompressedSRGB8Alpha8ETC2EAC: g3d.TextureFormatETC2EACSRGBA8,
	ktx.GLCompressedRGBS3TCDXT1:        g3d.TextureFormatDXT1RGB,
	ktx.GLCompressedRGBAS3TCDXT1:       g3d.TextureFormatDXT1RGBA,
	ktx.GLCompressedRGBAS3TCDXT5:       g3d.TextureFormatDXT5RGBA,
	ktx.GLCompressedRGBAASTC4x4:        g3d.TextureFormatASTC4x4RGBA,
	ktx.GLCompressedSRGB8Alpha8ASTC4x4: g3d.TextureFormatASTC4x4SRGB8A8,
}

// srgbFormats maps linear formats to their sRGB variants.
var srgbFormats = map[g3d.TextureFormat]g3d.TextureFormat{
	g3d.TextureFormatRGB8:         g3d.TextureFormatSRGB8,
	g3d.TextureFormatRGBA8:        g3d.TextureFormatSRGB8A8,
	g3d.TextureFormatETC2RGB8:     g3d.TextureFormatETC2SRGB8,
	g3d.TextureFormatETC2EACRGBA8: g3d.TextureFormatETC2EACSRGBA8,
	g3d.TextureFormatASTC4x4RGBA:  g3d.TextureFormatASTC4x4SRGB8A8,
}

// DecodeKTX decodes a KTX payload into a 2D texture or, when the file
// holds six faces, a cubemap. Every stored level is uploaded. A file with
// only a base level of an 8-bit uncompressed format gets its remaining
// levels generated unless opts.NoMips is set.
func DecodeKTX(e *g3d.Engine, src g3d.Source, opts Options) (g3d.Texture, error) {
	b, err := readKTX(e, src)
	if err != nil {
		return g3d.Texture{}, err
	}
	return textureFromBundle(e, b, opts)
}

func readKTX(e *g3d.Engine, src g3d.Source) (*ktx.Bundle, error) {
	data, err := e.ReadSource(src)
	if err != nil {
		return nil, err
	}
	b, err := ktx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: ktx: %w", ErrDecode, err)
	}
	if b.PixelDepth > 1 {
		return nil, fmt.Errorf("%w: ktx: 3D textures are not supported", ErrDecode)
	}
	return b, nil
}

// ktxFormat picks the texture format and pixel layout for b.
// ok is false when the engine cannot store the format.
func ktxFormat(e *g3d.Engine, b *ktx.Bundle, opts Options) (f g3d.TextureFormat, pixels g3d.PixelDataFormat, typ g3d.PixelDataType, ok bool) {
	f, known := glFormats[b.GLInternalFormat]
	if !known {
		g3d.Logger().Warn("texload: unknown ktx internal format",
			"glInternalFormat", fmt.Sprintf("0x%04X", b.GLInternalFormat))
		return f, 0, 0, false
	}
	switch {
	case opts.RGBM && (f == g3d.TextureFormatRGBA8 || f == g3d.TextureFormatSRGB8A8):
		f = g3d.TextureFormatRGBA8
	case opts.RGBM:
		g3d.Logger().Warn("texload: rgbm ignored for ktx format", "format", f)
		opts.RGBM = false
	case opts.SRGB:
		if s, has := srgbFormats[f]; has {
			f = s
		}
	}
	if !e.IsTextureFormatSupported(f) {
		g3d.Logger().Warn("texload: texture format not supported by engine", "format", f)
		return f, 0, 0, false
	}
	pixels, typ = f.PixelLayout()
	if opts.RGBM {
		pixels = g3d.PixelRGBM
	}
	return f, pixels, typ, true
}

func textureFromBundle(e *g3d.Engine, b *ktx.Bundle, opts Options) (g3d.Texture, error) {
	format, pixels, typ, ok := ktxFormat(e, b, opts)
	if !ok {
		return g3d.Texture{}, nil
	}
	rgbm := pixels == g3d.PixelRGBM

	stored := b.Levels()
	full := g3d.MaxLevelCount(b.Width(), b.Height())
	if stored > full {
		return g3d.Texture{}, fmt.Errorf("%w: ktx: %d levels for %dx%d", ErrDecode, stored, b.Width(), b.Height())
	}
	generate := !opts.NoMips && stored == 1 && full > 1
	if generate && (format.IsCompressed() || typ != g3d.PixelUByte) {
		g3d.Logger().Warn("texload: mipmap generation skipped", "kind", "ktx", "format", format)
		generate = false
	}
	levels := stored
	if generate {
		levels = full
	}

	sampler := g3d.Sampler2D
	if b.IsCubemap() {
		sampler = g3d.SamplerCubemap
	}
	tex, err := g3d.NewTextureBuilder().
		Width(b.Width()).
		Height(b.Height()).
		Levels(levels).
		Sampler(sampler).
		Format(format).
		RGBM(rgbm).
		Build(e)
	if errors.Is(err, g3d.ErrUnsupportedFormat) {
		g3d.Logger().Warn("texload: texture format not supported by engine", "format", format, "err", err)
		return g3d.Texture{}, nil
	}
	if err != nil {
		return g3d.Texture{}, err
	}

	for level := range stored {
		if err := uploadLevel(e, tex, b, level, format, pixels, typ); err != nil {
			_ = e.DestroyTexture(tex)
			return g3d.Texture{}, err
		}
	}
	if generate {
		if err := tex.GenerateMipmaps(e); err != nil {
			g3d.Logger().Warn("texload: mipmap generation skipped", "kind", "ktx", "err", err)
		}
	}
	g3d.Logger().Debug("texload: ktx decoded", "format", format, "sampler", sampler,
		"width", b.Width(), "height", b.Height(), "levels", levels, "stored", stored)
	return tex, nil
}

// uploadLevel uploads every face of one stored level.
func uploadLevel(e *g3d.Engine, tex g3d.Texture, b *ktx.Bundle, level int, format g3d.TextureFormat,
	pixels g3d.PixelDataFormat, typ g3d.PixelDataType) error {
	w := max(b.Width()>>level, 1)
	h := max(b.Height()>>level, 1)
	faces := b.Faces()

	var data []byte
	faceSize := 0
	for face := range faces {
		img := b.Image(level, face)
		if len(img) == 0 {
			return fmt.Errorf("%w: ktx: level %d face %d is empty", ErrDecode, level, face)
		}
		if !format.IsCompressed() {
			img = unpadRows(img, int(w)*pixels.Channels()*typ.Size(), int(h))
		}
		if face == 0 {
			faceSize = len(img)
		} else if len(img) != faceSize {
			return fmt.Errorf("%w: ktx: level %d face %d has %d bytes, want %d",
				ErrDecode, level, face, len(img), faceSize)
		}
		data = append(data, img...)
	}

	var pb *g3d.PixelBufferDescriptor
	var err error
	if format.IsCompressed() {
		pb, err = e.NewCompressedPixelBuffer(data, format, faceSize)
	} else {
		pb, err = e.NewPixelBuffer(data, pixels, typ)
	}
	if err != nil {
		return err
	}
	if faces == 6 {
		return tex.SetImageCube(e, level, pb)
	}
	return tex.SetImage(e, level, pb)
}

// unpadRows strips the 4-byte row alignment KTX applies to uncompressed
// images. Tightly packed images are returned as is.
func unpadRows(img []byte, rowBytes, rows int) []byte {
	stride := (rowBytes + 3) &^ 3
	if stride == rowBytes || len(img) == rowBytes*rows || len(img) < stride*rows {
		return img
	}
	out := make([]byte, 0, rowBytes*rows)
	for y := range rows {
		out = append(out, img[y*stride:y*stride+rowBytes]...)
	}
	return out
}
