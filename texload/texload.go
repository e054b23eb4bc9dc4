// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texload decodes PNG, JPEG and KTX payloads into g3d textures,
// and builds image-based lights and skyboxes from KTX cubemaps.
//
// Every decoder reads its payload from a g3d.Source, so descriptors passed
// in are consumed whether or not decoding succeeds. Payloads that cannot be
// decoded fail with an error wrapping ErrDecode and create nothing. Payloads
// in a format the engine cannot store degrade to a zero handle, a nil error
// and a warning in the g3d log.
package texload

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d"
	intImage "github.com/gogpu/g3d/internal/image"
)

// ErrDecode is wrapped by every error caused by a malformed payload.
var ErrDecode = errors.New("texload: decode failed")

// Options controls how decoded pixels become a texture.
type Options struct {
	// SRGB selects the sRGB variant of the texture format.
	SRGB bool
	// RGBM marks 8-bit RGBA data as RGBM-encoded HDR. RGBM takes
	// precedence over SRGB and NoAlpha.
	RGBM bool
	// NoAlpha drops the alpha channel of PNG and JPEG images.
	NoAlpha bool
	// NoMips skips mip generation.
	NoMips bool
}

// ParseOptions reads the keys srgb, rgbm, noalpha and nomips from an
// options record. Other keys, and values that are not booleans, are
// ignored.
func ParseOptions(m map[string]any) Options {
	flag := func(key string) bool {
		v, _ := m[key].(bool)
		return v
	}
	return Options{
		SRGB:    flag("srgb"),
		RGBM:    flag("rgbm"),
		NoAlpha: flag("noalpha"),
		NoMips:  flag("nomips"),
	}
}

// DecodePNG decodes a PNG payload into a 2D texture with a full mip chain.
func DecodePNG(e *g3d.Engine, src g3d.Source, opts Options) (g3d.Texture, error) {
	return decodeImage(e, src, opts, "png", intImage.DecodePNG)
}

// DecodeJPEG decodes a JPEG payload into a 2D texture with a full mip chain.
func DecodeJPEG(e *g3d.Engine, src g3d.Source, opts Options) (g3d.Texture, error) {
	return decodeImage(e, src, opts, "jpeg", intImage.DecodeJPEG)
}

func decodeImage(e *g3d.Engine, src g3d.Source, opts Options, kind string,
	decode func([]byte) (*intImage.ImageBuf, error)) (g3d.Texture, error) {
	data, err := e.ReadSource(src)
	if err != nil {
		return g3d.Texture{}, err
	}
	img, err := decode(data)
	if err != nil {
		return g3d.Texture{}, fmt.Errorf("%w: %s: %w", ErrDecode, kind, err)
	}

	format, pixels := g3d.TextureFormatRGBA8, g3d.PixelRGBA
	switch {
	case opts.RGBM:
		if opts.NoAlpha || opts.SRGB {
			g3d.Logger().Debug("texload: rgbm overrides srgb and noalpha", "kind", kind)
		}
		pixels = g3d.PixelRGBM
	case opts.NoAlpha:
		if img, err = img.Convert(intImage.FormatRGB8); err != nil {
			return g3d.Texture{}, fmt.Errorf("%w: %s: %w", ErrDecode, kind, err)
		}
		format, pixels = g3d.TextureFormatRGB8, g3d.PixelRGB
		if opts.SRGB {
			format = g3d.TextureFormatSRGB8
		}
	case opts.SRGB:
		format = g3d.TextureFormatSRGB8A8
	}

	tex, err := g3d.NewTextureBuilder().
		Width(uint32(img.Width())).
		Height(uint32(img.Height())).
		Format(format).
		RGBM(opts.RGBM).
		Build(e)
	if err != nil {
		return g3d.Texture{}, err
	}

	pb, err := stagePixels(e, img.Data(), pixels, g3d.PixelUByte)
	if err == nil {
		err = tex.SetImage(e, 0, pb)
	}
	if err != nil {
		_ = e.DestroyTexture(tex)
		return g3d.Texture{}, err
	}
	if !opts.NoMips {
		if err := tex.GenerateMipmaps(e); err != nil {
			g3d.Logger().Warn("texload: mipmap generation skipped", "kind", kind, "err", err)
		}
	}
	g3d.Logger().Debug("texload: image decoded", "kind", kind,
		"width", img.Width(), "height", img.Height(), "format", format)
	return tex, nil
}

// stagePixels fills a scratch region with pix and wraps it in a pixel
// descriptor. The descriptor copies out of the scratch heap before the
// region is returned.
func stagePixels(e *g3d.Engine, pix []byte, format g3d.PixelDataFormat, typ g3d.PixelDataType) (*g3d.PixelBufferDescriptor, error) {
	s, err := e.Scratch(len(pix))
	if err != nil {
		return nil, err
	}
	defer s.Free()
	copy(s.Bytes(), pix)
	return e.NewPixelBuffer(s.Bytes(), format, typ)
}
