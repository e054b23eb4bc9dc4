package device

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("device: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("device: invalid buffer size")

	// ErrWriteOutOfRange is returned when an upload does not fit the buffer.
	ErrWriteOutOfRange = errors.New("device: write out of buffer range")
)

// copyBufferAlignment is the alignment required for buffer sizes and
// upload offsets.
const copyBufferAlignment uint64 = 4

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// Buffer is a device buffer.
//
// Lifecycle:
//  1. Create via Device.CreateBuffer()
//  2. Upload with Write()
//  3. Call Destroy() when the buffer is no longer needed
type Buffer struct {
	halBuffer  hal.Buffer
	device     *Device
	descriptor BufferDescriptor
	// alignedSize is the allocated size, rounded up to copyBufferAlignment.
	alignedSize uint64
	// contents mirrors the uploaded bytes. Unaligned tails are padded from
	// it so a short write never clobbers the bytes that follow it.
	contents  []byte
	written   uint64
	destroyed bool
}

// CreateBuffer creates a new buffer.
//
// Returns an error if:
//   - The device is closed
//   - Buffer size or usage is invalid
//   - The memory budget would be exceeded
//   - Buffer creation fails
func (d *Device) CreateBuffer(desc *BufferDescriptor) (*Buffer, error) {
	if desc == nil {
		return nil, fmt.Errorf("buffer descriptor is nil")
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}
	if desc.Usage == 0 {
		return nil, fmt.Errorf("buffer usage is empty")
	}

	// Copy destinations must be 4-byte aligned.
	alignedSize := (desc.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)

	if err := d.reserve(alignedSize); err != nil {
		return nil, err
	}
	halBuffer, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alignedSize,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.unreserve(alignedSize)
		return nil, fmt.Errorf("buffer creation failed: %w", err)
	}
	d.buffers++
	slogger().Debug("buffer created", "label", desc.Label, "size", alignedSize)

	return &Buffer{
		halBuffer:   halBuffer,
		device:      d,
		descriptor:  *desc,
		alignedSize: alignedSize,
	}, nil
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string { return b.descriptor.Label }

// Size returns the requested buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.descriptor.Size }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.descriptor.Usage }

// Written returns the total number of bytes uploaded so far.
func (b *Buffer) Written() uint64 { return b.written }

// IsDestroyed returns true if the buffer has been destroyed.
func (b *Buffer) IsDestroyed() bool { return b.destroyed }

// Raw returns the underlying buffer handle, or nil once destroyed.
func (b *Buffer) Raw() hal.Buffer {
	if b.destroyed {
		return nil
	}
	return b.halBuffer
}

// Write uploads data at the given byte offset.
// The data is padded to the copy alignment when needed. Padding carries the
// bytes already uploaded past the end of data, or zeros where nothing was
// written yet.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.device.closed {
		return ErrClosed
	}
	if offset%copyBufferAlignment != 0 {
		return fmt.Errorf("%w: offset %d must be %d-byte aligned",
			ErrWriteOutOfRange, offset, copyBufferAlignment)
	}
	n := uint64(len(data))
	if offset+n > b.descriptor.Size {
		return fmt.Errorf("%w: offset %d + size %d > buffer size %d",
			ErrWriteOutOfRange, offset, n, b.descriptor.Size)
	}
	if b.contents == nil {
		b.contents = make([]byte, b.alignedSize)
	}
	copy(b.contents[offset:], data)
	if rem := n % copyBufferAlignment; rem != 0 {
		data = slices.Clone(b.contents[offset : offset+n+copyBufferAlignment-rem])
	}
	b.device.queue.WriteBuffer(b.halBuffer, offset, data)
	b.written += n
	return nil
}

// Destroy releases the buffer.
// This method is idempotent - calling it multiple times is safe.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	d := b.device
	halBuf := b.halBuffer
	b.halBuffer = nil
	b.contents = nil
	if d.closed || halBuf == nil {
		return
	}
	d.device.DestroyBuffer(halBuf)
	d.unreserve(b.alignedSize)
	d.buffers--
}
