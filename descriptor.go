package g3d

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BufferDescriptor owns a copy of caller data staged for transfer into an
// engine resource. The bytes live in the engine's scratch heap until the
// descriptor is consumed by the first resource call that reads it, at which
// point the storage is freed and the release callback runs.
type BufferDescriptor struct {
	e         *Engine
	off       int
	size      int
	released  bool
	onRelease func()
}

// PixelDataFormat describes the channels of uncompressed pixel data.
type PixelDataFormat uint8

// Pixel data formats.
const (
	PixelR PixelDataFormat = iota
	PixelRG
	PixelRGB
	PixelRGBA
	// PixelRGBM is RGBA data where alpha holds the RGB multiplier.
	PixelRGBM
)

// Channels returns the number of components per pixel.
func (f PixelDataFormat) Channels() int {
	switch f {
	case PixelR:
		return 1
	case PixelRG:
		return 2
	case PixelRGB:
		return 3
	default:
		return 4
	}
}

// PixelDataType describes the component type of uncompressed pixel data.
type PixelDataType uint8

// Pixel data types.
const (
	PixelUByte PixelDataType = iota
	PixelHalf
	PixelFloat
)

// Size returns the size of one component in bytes.
func (t PixelDataType) Size() int {
	switch t {
	case PixelHalf:
		return 2
	case PixelFloat:
		return 4
	default:
		return 1
	}
}

// PixelBufferDescriptor is a BufferDescriptor tagged with its pixel layout.
// Compressed descriptors carry the block format instead of Format and Type.
type PixelBufferDescriptor struct {
	BufferDescriptor

	Format PixelDataFormat
	Type   PixelDataType

	// Compressed is set for block-compressed data; CompressedFormat and
	// FaceSize are only meaningful then.
	Compressed       bool
	CompressedFormat TextureFormat
	// FaceSize is the byte size of one cubemap face.
	FaceSize int
}

// NewBuffer copies src into a new descriptor. The source is left untouched
// and later changes to it are not observed by the descriptor.
func (e *Engine) NewBuffer(src []byte) (*BufferDescriptor, error) {
	d := new(BufferDescriptor)
	if err := e.initDescriptor(d, src); err != nil {
		return nil, err
	}
	return d, nil
}

// NewPixelBuffer copies uncompressed pixel data into a new descriptor.
func (e *Engine) NewPixelBuffer(src []byte, format PixelDataFormat, typ PixelDataType) (*PixelBufferDescriptor, error) {
	if format > PixelRGBM || typ > PixelFloat {
		return nil, fmt.Errorf("%w: pixel format %d type %d", ErrInvalidArgument, format, typ)
	}
	d := &PixelBufferDescriptor{Format: format, Type: typ}
	if err := e.initDescriptor(&d.BufferDescriptor, src); err != nil {
		return nil, err
	}
	return d, nil
}

// NewCompressedPixelBuffer copies block-compressed data into a new
// descriptor. faceSize is the size of one cubemap face; 0 means the whole
// buffer is a single image.
func (e *Engine) NewCompressedPixelBuffer(src []byte, format TextureFormat, faceSize int) (*PixelBufferDescriptor, error) {
	if !format.IsCompressed() {
		return nil, fmt.Errorf("%w: %v is not a compressed format", ErrInvalidArgument, format)
	}
	if faceSize < 0 || faceSize > len(src) {
		return nil, fmt.Errorf("%w: face size %d for %d bytes", ErrInvalidArgument, faceSize, len(src))
	}
	if faceSize == 0 {
		faceSize = len(src)
	}
	d := &PixelBufferDescriptor{Compressed: true, CompressedFormat: format, FaceSize: faceSize}
	if err := e.initDescriptor(&d.BufferDescriptor, src); err != nil {
		return nil, err
	}
	return d, nil
}

func (e *Engine) initDescriptor(d *BufferDescriptor, src []byte) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	if len(src) == 0 {
		return ErrEmptyBuffer
	}
	// The allocation below may grow the heap, which detaches every slice
	// over the old backing array. Copy such sources out first.
	if e.heap.aliases(src) {
		src = append([]byte(nil), src...)
		e.heap.snapshots++
		Logger().Debug("g3d: descriptor source aliases scratch heap, snapshotting", "bytes", len(src))
	}
	d.e = e
	d.size = len(src)
	d.off = e.heap.alloc(len(src))
	copy(e.heap.view(d.off, d.size), src)
	e.descriptors[d] = struct{}{}
	return nil
}

// Len returns the size of the data in bytes.
func (d *BufferDescriptor) Len() int { return d.size }

// Released reports whether the descriptor has been consumed or released.
func (d *BufferDescriptor) Released() bool { return d.released }

// Bytes returns a copy of the descriptor's data, or nil once released.
func (d *BufferDescriptor) Bytes() []byte {
	if d.released {
		return nil
	}
	return append([]byte(nil), d.e.heap.view(d.off, d.size)...)
}

// SetReleaseCallback sets a function called exactly once, when the
// descriptor is consumed or released.
func (d *BufferDescriptor) SetReleaseCallback(fn func()) {
	d.onRelease = fn
}

func (d *BufferDescriptor) source() {}

// release frees the heap storage and runs the callback.
func (d *BufferDescriptor) release() {
	if d.released {
		return
	}
	d.released = true
	if !d.e.destroyed {
		d.e.heap.free(d.off)
	}
	delete(d.e.descriptors, d)
	if fn := d.onRelease; fn != nil {
		d.onRelease = nil
		fn()
	}
}

// Release frees a descriptor that will not be consumed.
func (e *Engine) Release(d *BufferDescriptor) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrEmptyBuffer)
	}
	if d.e != e {
		return fmt.Errorf("%w: buffer descriptor", ErrForeignEngine)
	}
	if d.released {
		return ErrDescriptorConsumed
	}
	d.release()
	return nil
}

// Float32Bytes encodes values as little-endian float32 data.
func Float32Bytes(v ...float32) Bytes {
	b := make(Bytes, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

// Uint16Bytes encodes values as little-endian uint16 data.
func Uint16Bytes(v ...uint16) Bytes {
	b := make(Bytes, 2*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint16(b[2*i:], x)
	}
	return b
}

// Uint32Bytes encodes values as little-endian uint32 data.
func Uint32Bytes(v ...uint32) Bytes {
	b := make(Bytes, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], x)
	}
	return b
}

// Int16Bytes encodes values as little-endian int16 data.
func Int16Bytes(v ...int16) Bytes {
	b := make(Bytes, 2*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(x))
	}
	return b
}
