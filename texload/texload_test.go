// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texload

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/internal/ktx"
)

const (
	glUnsignedByte = 0x1401
	glHalfFloat    = 0x140B
)

func newEngine(t *testing.T, opts ...g3d.EngineOption) *g3d.Engine {
	t.Helper()
	e, err := g3d.NewHeadlessEngine(opts...)
	if err != nil {
		t.Fatalf("NewHeadlessEngine() error = %v", err)
	}
	t.Cleanup(e.Destroy)
	return e
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ktxSpec describes a synthetic KTX file. Uncompressed images use bpp
// bytes per pixel with rows padded to 4 bytes; compressed ones use
// blockBytes per level face.
type ktxSpec struct {
	internal   uint32
	glType     uint32
	size       uint32
	faces      uint32
	levels     uint32
	bpp        int
	blockBytes int
	sh         string
}

func ktxBytes(t *testing.T, s ktxSpec) []byte {
	t.Helper()
	b, err := ktx.NewBundle(ktx.Header{
		GLType:               s.glType,
		GLTypeSize:           1,
		GLInternalFormat:     s.internal,
		PixelWidth:           s.size,
		PixelHeight:          s.size,
		NumberOfFaces:        s.faces,
		NumberOfMipmapLevels: s.levels,
	})
	if err != nil {
		t.Fatal(err)
	}
	for level := range b.Levels() {
		w := max(int(s.size)>>level, 1)
		n := s.blockBytes
		if s.bpp > 0 {
			n = ((w*s.bpp + 3) &^ 3) * w
		}
		for face := range b.Faces() {
			img := make([]byte, n)
			for i := range img {
				img[i] = uint8(level + face + i)
			}
			if err := b.SetImage(level, face, img); err != nil {
				t.Fatal(err)
			}
		}
	}
	if s.sh != "" {
		b.SetMetadata("sh", s.sh)
	}
	data, err := b.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func rgba8(size, faces, levels uint32) ktxSpec {
	return ktxSpec{internal: ktx.GLRGBA8, glType: glUnsignedByte, size: size, faces: faces, levels: levels, bpp: 4}
}

func etc2(size, faces uint32) ktxSpec {
	return ktxSpec{internal: ktx.GLCompressedRGB8ETC2, size: size, faces: faces, levels: 1, blockBytes: 8}
}

func info(t *testing.T, e *g3d.Engine, tex g3d.Texture) g3d.TextureInfo {
	t.Helper()
	if tex.IsZero() {
		t.Fatal("texture is zero")
	}
	i, err := tex.Info(e)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	return i
}

func TestParseOptions(t *testing.T) {
	got := ParseOptions(map[string]any{
		"srgb":    true,
		"rgbm":    false,
		"noalpha": "yes",
		"nomips":  true,
		"quality": 90,
	})
	want := Options{SRGB: true, NoMips: true}
	if got != want {
		t.Errorf("ParseOptions() = %+v, want %+v", got, want)
	}
	if ParseOptions(nil) != (Options{}) {
		t.Error("ParseOptions(nil) should be zero")
	}
}

func TestDecodePNG(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		format g3d.TextureFormat
		rgbm   bool
		mips   bool
	}{
		{"default", Options{}, g3d.TextureFormatRGBA8, false, true},
		{"srgb", Options{SRGB: true}, g3d.TextureFormatSRGB8A8, false, true},
		{"noalpha", Options{NoAlpha: true}, g3d.TextureFormatRGB8, false, true},
		{"noalpha srgb", Options{NoAlpha: true, SRGB: true}, g3d.TextureFormatSRGB8, false, true},
		{"rgbm", Options{RGBM: true}, g3d.TextureFormatRGBA8, true, true},
		{"rgbm wins over noalpha", Options{RGBM: true, NoAlpha: true}, g3d.TextureFormatRGBA8, true, true},
		{"nomips", Options{NoMips: true}, g3d.TextureFormatRGBA8, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			tex, err := DecodePNG(e, g3d.Bytes(pngBytes(t, 8, 4)), tt.opts)
			if err != nil {
				t.Fatalf("DecodePNG() error = %v", err)
			}
			i := info(t, e, tex)
			if i.Width != 8 || i.Height != 4 || i.Levels != 4 {
				t.Errorf("texture = %dx%d with %d levels, want 8x4 with 4", i.Width, i.Height, i.Levels)
			}
			if i.Format != tt.format || i.RGBM != tt.rgbm {
				t.Errorf("format = %v rgbm = %v, want %v %v", i.Format, i.RGBM, tt.format, tt.rgbm)
			}
			if i.MipmapsGenerated != tt.mips {
				t.Errorf("MipmapsGenerated = %v, want %v", i.MipmapsGenerated, tt.mips)
			}
			if i.UploadedLevels&1 == 0 {
				t.Error("level 0 not uploaded")
			}
			if n := e.Stats().Heap.Allocations; n != 0 {
				t.Errorf("heap allocations = %d after decode", n)
			}
		})
	}
}

func TestDecodeJPEG(t *testing.T) {
	e := newEngine(t)
	tex, err := DecodeJPEG(e, g3d.Bytes(jpegBytes(t, 16, 16)), Options{NoAlpha: true})
	if err != nil {
		t.Fatalf("DecodeJPEG() error = %v", err)
	}
	if i := info(t, e, tex); i.Format != g3d.TextureFormatRGB8 || !i.MipmapsGenerated {
		t.Errorf("info = %+v", i)
	}
}

func TestDecodeFailures(t *testing.T) {
	garbage := []byte("definitely not an image")
	decoders := map[string]func(*g3d.Engine, g3d.Source, Options) (g3d.Texture, error){
		"png":  DecodePNG,
		"jpeg": DecodeJPEG,
		"ktx":  DecodeKTX,
		"auto": Decode,
	}
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t)
			d, err := e.NewBuffer(garbage)
			if err != nil {
				t.Fatal(err)
			}
			tex, err := decode(e, d, Options{})
			if !errors.Is(err, ErrDecode) {
				t.Errorf("error = %v, want ErrDecode", err)
			}
			if !tex.IsZero() || e.Stats().Textures != 0 {
				t.Error("no texture should be created")
			}
			if !d.Released() {
				t.Error("descriptor should be consumed on failure")
			}
		})
	}
}

func TestDecodeMissingSource(t *testing.T) {
	e := newEngine(t)
	if _, err := DecodePNG(e, g3d.Asset("earth"), Options{}); !errors.Is(err, g3d.ErrUnknownAsset) {
		t.Errorf("error = %v, want ErrUnknownAsset", err)
	}
}

func TestDecodeKTX(t *testing.T) {
	tests := []struct {
		name    string
		spec    ktxSpec
		opts    Options
		format  g3d.TextureFormat
		sampler g3d.SamplerType
		levels  int
		mips    bool
	}{
		{"base level generates mips", rgba8(4, 1, 1), Options{}, g3d.TextureFormatRGBA8, g3d.Sampler2D, 3, true},
		{"nomips keeps stored levels", rgba8(4, 1, 1), Options{NoMips: true}, g3d.TextureFormatRGBA8, g3d.Sampler2D, 1, false},
		{"full chain stored", rgba8(4, 1, 3), Options{}, g3d.TextureFormatRGBA8, g3d.Sampler2D, 3, false},
		{"partial chain kept as stored", rgba8(4, 1, 2), Options{}, g3d.TextureFormatRGBA8, g3d.Sampler2D, 2, false},
		{"srgb", rgba8(4, 1, 1), Options{SRGB: true, NoMips: true}, g3d.TextureFormatSRGB8A8, g3d.Sampler2D, 1, false},
		{"cubemap", rgba8(4, 6, 1), Options{}, g3d.TextureFormatRGBA8, g3d.SamplerCubemap, 3, true},
		{
			"padded rows",
			ktxSpec{internal: ktx.GLRGB8, glType: glUnsignedByte, size: 3, faces: 1, levels: 1, bpp: 3},
			Options{}, g3d.TextureFormatRGB8, g3d.Sampler2D, 2, true,
		},
		{
			"half float skips generation",
			ktxSpec{internal: ktx.GLRGBA16F, glType: glHalfFloat, size: 2, faces: 1, levels: 1, bpp: 8},
			Options{}, g3d.TextureFormatRGBA16F, g3d.Sampler2D, 1, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, tt.spec)), tt.opts)
			if err != nil {
				t.Fatalf("DecodeKTX() error = %v", err)
			}
			i := info(t, e, tex)
			if i.Format != tt.format || i.Sampler != tt.sampler || i.Levels != tt.levels {
				t.Errorf("texture = %v %v %d levels, want %v %v %d",
					i.Format, i.Sampler, i.Levels, tt.format, tt.sampler, tt.levels)
			}
			if i.MipmapsGenerated != tt.mips {
				t.Errorf("MipmapsGenerated = %v, want %v", i.MipmapsGenerated, tt.mips)
			}
			stored := uint64(1)<<max(tt.spec.levels, 1) - 1
			if i.UploadedLevels&stored != stored {
				t.Errorf("UploadedLevels = %b, want %b set", i.UploadedLevels, stored)
			}
		})
	}
}

func TestDecodeKTXRGBM(t *testing.T) {
	e := newEngine(t)
	spec := ktxSpec{internal: ktx.GLSRGB8Alpha8, glType: glUnsignedByte, size: 2, faces: 1, levels: 1, bpp: 4}
	tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, spec)), Options{RGBM: true, SRGB: true})
	if err != nil {
		t.Fatal(err)
	}
	if i := info(t, e, tex); i.Format != g3d.TextureFormatRGBA8 || !i.RGBM {
		t.Errorf("format = %v rgbm = %v, want RGBA8 rgbm", i.Format, i.RGBM)
	}
}

func TestDecodeKTXCompressed(t *testing.T) {
	t.Run("unsupported degrades", func(t *testing.T) {
		e := newEngine(t)
		tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, etc2(4, 1))), Options{})
		if err != nil || !tex.IsZero() {
			t.Errorf("DecodeKTX() = %v, %v, want zero texture and nil error", tex, err)
		}
		if e.Stats().Textures != 0 {
			t.Error("no texture should be created")
		}
	})
	t.Run("supported", func(t *testing.T) {
		e := newEngine(t, g3d.WithCompressedFormats(g3d.TextureFormatETC2RGB8))
		tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, etc2(4, 1))), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if i := info(t, e, tex); i.Format != g3d.TextureFormatETC2RGB8 || i.Levels != 1 || i.MipmapsGenerated {
			t.Errorf("info = %+v", i)
		}
	})
	t.Run("supported cubemap", func(t *testing.T) {
		e := newEngine(t, g3d.WithCompressedFormats(g3d.TextureFormatETC2RGB8))
		tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, etc2(4, 6))), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if i := info(t, e, tex); i.Sampler != g3d.SamplerCubemap || i.UploadedLevels != 1 {
			t.Errorf("info = %+v", i)
		}
	})
	t.Run("unknown internal format", func(t *testing.T) {
		e := newEngine(t)
		spec := etc2(4, 1)
		spec.internal = 0x1234
		tex, err := DecodeKTX(e, g3d.Bytes(ktxBytes(t, spec)), Options{})
		if err != nil || !tex.IsZero() {
			t.Errorf("DecodeKTX() = %v, %v, want zero texture and nil error", tex, err)
		}
	})
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want types.Type
	}{
		{"png", pngBytes(t, 2, 2), matchers.TypePng},
		{"jpeg", jpegBytes(t, 2, 2), matchers.TypeJpeg},
		{"ktx", ktxBytes(t, rgba8(2, 1, 1)), TypeKTX},
		{"garbage", []byte("plain text"), filetype.Unknown},
		{"empty", nil, filetype.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeSniffs(t *testing.T) {
	e := newEngine(t)
	tab := e.Assets()
	tab.Register("photo", jpegBytes(t, 4, 4))
	tab.Register("icon", pngBytes(t, 4, 4))
	tab.Register("env", ktxBytes(t, rgba8(4, 6, 1)))

	for name, sampler := range map[string]g3d.SamplerType{
		"photo": g3d.Sampler2D,
		"icon":  g3d.Sampler2D,
		"env":   g3d.SamplerCubemap,
	} {
		tex, err := Decode(e, g3d.Asset(name), Options{})
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", name, err)
		}
		if i := info(t, e, tex); i.Sampler != sampler {
			t.Errorf("Decode(%s) sampler = %v, want %v", name, i.Sampler, sampler)
		}
	}
}

func shString(coefficients int) string {
	return strings.TrimSpace(strings.Repeat("0.25 0.5 0.75 ", coefficients))
}

func TestDecodeIBL(t *testing.T) {
	t.Run("reflections and irradiance", func(t *testing.T) {
		e := newEngine(t)
		spec := rgba8(4, 6, 3)
		spec.sh = shString(9)
		light, err := DecodeIBL(e, g3d.Bytes(ktxBytes(t, spec)), Options{})
		if err != nil {
			t.Fatalf("DecodeIBL() error = %v", err)
		}
		refl, err := light.Reflections(e)
		if err != nil || refl.IsZero() {
			t.Fatalf("Reflections() = %v, %v", refl, err)
		}
		sh, err := light.Irradiance(e)
		if err != nil || len(sh) != 9 || sh[8] != [3]float32{0.25, 0.5, 0.75} {
			t.Errorf("Irradiance() = %v, %v", sh, err)
		}
	})
	t.Run("reflections only", func(t *testing.T) {
		e := newEngine(t)
		light, err := DecodeIBL(e, g3d.Bytes(ktxBytes(t, rgba8(4, 6, 1))), Options{})
		if err != nil || light.IsZero() {
			t.Fatalf("DecodeIBL() = %v, %v", light, err)
		}
		if sh, _ := light.Irradiance(e); len(sh) != 0 {
			t.Errorf("Irradiance() = %v, want none", sh)
		}
	})
	t.Run("irradiance only when cubemap unsupported", func(t *testing.T) {
		e := newEngine(t)
		spec := etc2(4, 6)
		spec.sh = shString(4)
		light, err := DecodeIBL(e, g3d.Bytes(ktxBytes(t, spec)), Options{})
		if err != nil || light.IsZero() {
			t.Fatalf("DecodeIBL() = %v, %v", light, err)
		}
		if refl, _ := light.Reflections(e); !refl.IsZero() {
			t.Error("Reflections() should be zero")
		}
		if sh, _ := light.Irradiance(e); len(sh) != 4 {
			t.Errorf("Irradiance() has %d coefficients, want 4", len(sh))
		}
	})

	errTests := []struct {
		name string
		spec ktxSpec
	}{
		{"not a cubemap", rgba8(4, 1, 1)},
		{"sh not a square", func() ktxSpec { s := rgba8(4, 6, 1); s.sh = shString(5); return s }()},
		{"sh not numeric", func() ktxSpec { s := rgba8(4, 6, 1); s.sh = "a b c"; return s }()},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			if _, err := DecodeIBL(e, g3d.Bytes(ktxBytes(t, tt.spec)), Options{}); !errors.Is(err, ErrDecode) {
				t.Errorf("DecodeIBL() error = %v, want ErrDecode", err)
			}
			if s := e.Stats(); s.Textures != 0 || s.IndirectLights != 0 {
				t.Errorf("stats = %v, want nothing created", s)
			}
		})
	}
}

func TestDecodeSkybox(t *testing.T) {
	e := newEngine(t)
	sky, err := DecodeSkybox(e, g3d.Bytes(ktxBytes(t, rgba8(4, 6, 1))), Options{NoMips: true})
	if err != nil {
		t.Fatalf("DecodeSkybox() error = %v", err)
	}
	env, err := sky.Environment(e)
	if err != nil {
		t.Fatal(err)
	}
	if i := info(t, e, env); i.Sampler != g3d.SamplerCubemap || i.Levels != 1 {
		t.Errorf("environment = %+v", i)
	}

	if _, err := DecodeSkybox(e, g3d.Bytes(ktxBytes(t, rgba8(4, 1, 1))), Options{}); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeSkybox(2D) error = %v, want ErrDecode", err)
	}
	sky, err = DecodeSkybox(e, g3d.Bytes(ktxBytes(t, etc2(4, 6))), Options{})
	if err != nil || !sky.IsZero() {
		t.Errorf("DecodeSkybox(unsupported) = %v, %v, want zero skybox", sky, err)
	}
}
