// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ktx reads and writes KTX 1.1 texture containers: the header, the
// key/value metadata block and the per-level, per-face images.
//
// Array textures are not supported.
package ktx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by Parse.
var (
	// ErrNotKTX is returned when the payload does not start with the KTX 1.1 identifier.
	ErrNotKTX = errors.New("ktx: missing file identifier")

	// ErrTruncated is returned when the payload ends before the data the header announces.
	ErrTruncated = errors.New("ktx: truncated payload")

	// ErrInvalidHeader is returned for inconsistent header fields.
	ErrInvalidHeader = errors.New("ktx: invalid header")

	// ErrUnsupported is returned for valid containers this package cannot represent.
	ErrUnsupported = errors.New("ktx: unsupported container")
)

// Identifier is the 12-byte KTX 1.1 file identifier.
var Identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const (
	headerSize       = 64
	endiannessNative = 0x04030201
)

// OpenGL internal formats understood by the loaders.
const (
	GLR8           uint32 = 0x8229
	GLRG8          uint32 = 0x822B
	GLRGB8         uint32 = 0x8051
	GLSRGB8        uint32 = 0x8C41
	GLRGBA8        uint32 = 0x8058
	GLSRGB8Alpha8  uint32 = 0x8C43
	GLR32F         uint32 = 0x822E
	GLRGB16F       uint32 = 0x881B
	GLRGBA16F      uint32 = 0x881A
	GLRGB32F       uint32 = 0x8815
	GLRGBA32F      uint32 = 0x8814
	GLR11FG11FB10F uint32 = 0x8C3A

	GLCompressedRGB8ETC2           uint32 = 0x9274
	GLCompressedSRGB8ETC2          uint32 = 0x9275
	GLCompressedRGBA8ETC2EAC       uint32 = 0x9278
	GLCompressedSRGB8Alpha8ETC2EAC uint32 = 0x9279
	GLCompressedRGBS3TCDXT1        uint32 = 0x83F0
	GLCompressedRGBAS3TCDXT1       uint32 = 0x83F1
	GLCompressedRGBAS3TCDXT5       uint32 = 0x83F3
	GLCompressedRGBAASTC4x4        uint32 = 0x93B0
	GLCompressedSRGB8Alpha8ASTC4x4 uint32 = 0x93D0
)

// Header is the fixed part of a KTX 1.1 file following the identifier.
type Header struct {
	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
}

// Bundle is a parsed KTX container.
type Bundle struct {
	Header
	metadata map[string][]byte
	keys     []string
	// images is indexed by level, then face.
	images [][][]byte
}

// NewBundle creates an empty bundle for an uncompressed or compressed image
// set. Images are attached with SetImage.
func NewBundle(h Header) (*Bundle, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	b := &Bundle{Header: h, metadata: make(map[string][]byte)}
	b.images = make([][][]byte, b.Levels())
	for i := range b.images {
		b.images[i] = make([][]byte, b.Faces())
	}
	return b, nil
}

func (h *Header) validate() error {
	switch {
	case h.PixelWidth == 0:
		return fmt.Errorf("%w: zero width", ErrInvalidHeader)
	case h.NumberOfFaces != 1 && h.NumberOfFaces != 6:
		return fmt.Errorf("%w: %d faces", ErrInvalidHeader, h.NumberOfFaces)
	case h.NumberOfFaces == 6 && h.PixelWidth != h.PixelHeight:
		return fmt.Errorf("%w: cubemap faces must be square", ErrInvalidHeader)
	case h.NumberOfArrayElements > 1:
		return fmt.Errorf("%w: %d array elements", ErrUnsupported, h.NumberOfArrayElements)
	case h.NumberOfMipmapLevels > 32:
		return fmt.Errorf("%w: %d mip levels", ErrInvalidHeader, h.NumberOfMipmapLevels)
	}
	return nil
}

// Width returns the width of level 0.
func (b *Bundle) Width() uint32 { return b.PixelWidth }

// Height returns the height of level 0; 1D textures report 1.
func (b *Bundle) Height() uint32 { return max(b.PixelHeight, 1) }

// Levels returns the number of stored mip levels. A header value of 0
// (generate on load) stores one level.
func (b *Bundle) Levels() int { return max(int(b.NumberOfMipmapLevels), 1) }

// Faces returns 6 for cubemaps and 1 otherwise.
func (b *Bundle) Faces() int { return int(b.NumberOfFaces) }

// IsCubemap reports whether the bundle holds six faces per level.
func (b *Bundle) IsCubemap() bool { return b.NumberOfFaces == 6 }

// IsCompressed reports whether the images are block-compressed.
func (b *Bundle) IsCompressed() bool { return b.GLType == 0 }

// Image returns the bytes of one face of one level, or nil.
func (b *Bundle) Image(level, face int) []byte {
	if level < 0 || level >= len(b.images) || face < 0 || face >= len(b.images[level]) {
		return nil
	}
	return b.images[level][face]
}

// SetImage attaches the bytes of one face of one level.
func (b *Bundle) SetImage(level, face int, data []byte) error {
	if level < 0 || level >= len(b.images) || face < 0 || face >= len(b.images[level]) {
		return fmt.Errorf("%w: level %d face %d", ErrInvalidHeader, level, face)
	}
	b.images[level][face] = data
	return nil
}

// Metadata returns the value stored under key with any trailing NUL removed.
func (b *Bundle) Metadata(key string) (string, bool) {
	v, ok := b.metadata[key]
	if !ok {
		return "", false
	}
	return string(bytes.TrimRight(v, "\x00")), true
}

// SetMetadata stores a key/value pair. Keys are written in insertion order.
func (b *Bundle) SetMetadata(key, value string) {
	if _, ok := b.metadata[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.metadata[key] = append([]byte(value), 0)
}

// SphericalHarmonics parses the "sh" metadata written by IBL bakers: 3
// floats (RGB) per band coefficient, separated by whitespace.
// The number of coefficients is returned as the bands squared.
func (b *Bundle) SphericalHarmonics() ([][3]float32, error) {
	v, ok := b.Metadata("sh")
	if !ok {
		return nil, fmt.Errorf("%w: no sh metadata", ErrUnsupported)
	}
	fields := strings.Fields(v)
	if len(fields) == 0 || len(fields)%3 != 0 {
		return nil, fmt.Errorf("%w: sh metadata has %d values", ErrInvalidHeader, len(fields))
	}
	sh := make([][3]float32, len(fields)/3)
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: sh metadata: %w", ErrInvalidHeader, err)
		}
		sh[i/3][i%3] = float32(x)
	}
	return sh, nil
}

// IsKTX reports whether data starts with the KTX 1.1 identifier.
func IsKTX(data []byte) bool {
	return len(data) >= len(Identifier) && bytes.Equal(data[:len(Identifier)], Identifier[:])
}

// Parse decodes a KTX 1.1 payload. Image slices alias data.
func Parse(data []byte) (*Bundle, error) {
	if !IsKTX(data) {
		return nil, ErrNotKTX
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data[12:16]) {
	case endiannessNative:
	case 0x01020304:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endianness marker", ErrInvalidHeader)
	}

	field := func(i int) uint32 { return order.Uint32(data[16+4*i:]) }
	h := Header{
		GLType:                field(0),
		GLTypeSize:            field(1),
		GLFormat:              field(2),
		GLInternalFormat:      field(3),
		GLBaseInternalFormat:  field(4),
		PixelWidth:            field(5),
		PixelHeight:           field(6),
		PixelDepth:            field(7),
		NumberOfArrayElements: field(8),
		NumberOfFaces:         field(9),
		NumberOfMipmapLevels:  field(10),
	}
	kvBytes := int(field(11))

	b, err := NewBundle(h)
	if err != nil {
		return nil, err
	}

	r := reader{data: data, pos: headerSize, order: order}
	kv, err := r.next(kvBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: key/value data", err)
	}
	if err := b.parseMetadata(kv, order); err != nil {
		return nil, err
	}

	for level := range b.Levels() {
		size, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: level %d size", err, level)
		}
		for face := range b.Faces() {
			img, err := r.next(int(size))
			if err != nil {
				return nil, fmt.Errorf("%w: level %d face %d", err, level, face)
			}
			b.images[level][face] = img
			// Cube faces are padded to 4 bytes; for other textures the
			// image size is already a multiple of 4 or is the last block.
			r.align4()
		}
	}
	return b, nil
}

func (b *Bundle) parseMetadata(kv []byte, order binary.ByteOrder) error {
	for len(kv) > 0 {
		if len(kv) < 4 {
			return fmt.Errorf("%w: key/value pair", ErrTruncated)
		}
		n := int(order.Uint32(kv))
		kv = kv[4:]
		if n > len(kv) {
			return fmt.Errorf("%w: key/value pair", ErrTruncated)
		}
		pair := kv[:n]
		key, value, ok := bytes.Cut(pair, []byte{0})
		if !ok {
			return fmt.Errorf("%w: unterminated metadata key", ErrInvalidHeader)
		}
		k := string(key)
		if _, seen := b.metadata[k]; !seen {
			b.keys = append(b.keys, k)
		}
		b.metadata[k] = value
		kv = kv[min(len(kv), pad4(n)):]
	}
	return nil
}

// MarshalBinary encodes the bundle as a little-endian KTX 1.1 payload.
func (b *Bundle) MarshalBinary() ([]byte, error) {
	var kv bytes.Buffer
	for _, k := range b.keys {
		v := b.metadata[k]
		n := len(k) + 1 + len(v)
		_ = binary.Write(&kv, binary.LittleEndian, uint32(n))
		kv.WriteString(k)
		kv.WriteByte(0)
		kv.Write(v)
		kv.Write(make([]byte, pad4(n)-n))
	}

	var out bytes.Buffer
	out.Write(Identifier[:])
	words := []uint32{
		endiannessNative,
		b.GLType, b.GLTypeSize, b.GLFormat, b.GLInternalFormat, b.GLBaseInternalFormat,
		b.PixelWidth, b.PixelHeight, b.PixelDepth,
		b.NumberOfArrayElements, b.NumberOfFaces, b.NumberOfMipmapLevels,
		uint32(kv.Len()),
	}
	_ = binary.Write(&out, binary.LittleEndian, words)
	out.Write(kv.Bytes())

	for level, faces := range b.images {
		size := len(faces[0])
		for face, img := range faces {
			if img == nil || len(img) != size {
				return nil, fmt.Errorf("%w: level %d face %d has %d bytes, want %d",
					ErrInvalidHeader, level, face, len(img), size)
			}
		}
		_ = binary.Write(&out, binary.LittleEndian, uint32(size))
		for _, img := range faces {
			out.Write(img)
			out.Write(make([]byte, pad4(len(img))-len(img)))
		}
	}
	return out.Bytes(), nil
}

func pad4(n int) int { return (n + 3) &^ 3 }

type reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *reader) align4() {
	r.pos = min(pad4(r.pos), len(r.data))
}
