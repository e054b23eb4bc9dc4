package g3d

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/internal/device"
)

// IndexType is the element type of an index buffer.
type IndexType uint8

// Index types.
const (
	IndexUInt IndexType = iota
	IndexUShort
)

// Size returns the size of one index in bytes.
func (t IndexType) Size() uint32 {
	if t == IndexUShort {
		return 2
	}
	return 4
}

// IndexBuffer is a handle to an index buffer.
type IndexBuffer struct{ h handle }

// IsZero reports whether ib is the zero handle.
func (ib IndexBuffer) IsZero() bool { return ib.h.isZero() }

type indexBufferData struct {
	count  uint32
	typ    IndexType
	buffer *device.Buffer
}

// IndexBufferBuilder configures an IndexBuffer.
type IndexBufferBuilder struct {
	builderState
	count uint32
	typ   IndexType
}

// NewIndexBufferBuilder returns an empty builder. IndexCount is required;
// the index type defaults to IndexUInt.
func NewIndexBufferBuilder() *IndexBufferBuilder {
	return &IndexBufferBuilder{builderState: builderState{kind: "index buffer"}}
}

// IndexCount sets the number of indices.
func (b *IndexBufferBuilder) IndexCount(n uint32) *IndexBufferBuilder {
	b.mutate()
	b.count = n
	return b
}

// BufferType sets the index element type.
func (b *IndexBufferBuilder) BufferType(t IndexType) *IndexBufferBuilder {
	b.mutate()
	b.typ = t
	return b
}

// Build creates the index buffer and consumes the builder.
func (b *IndexBufferBuilder) Build(e *Engine) (IndexBuffer, error) {
	if err := b.consume(e); err != nil {
		return IndexBuffer{}, err
	}
	if b.count == 0 {
		return IndexBuffer{}, fmt.Errorf("%w: index count", ErrMissingField)
	}
	if b.typ > IndexUShort {
		return IndexBuffer{}, fmt.Errorf("%w: index type %d", ErrInvalidArgument, b.typ)
	}
	buf, err := e.dev.CreateBuffer(&device.BufferDescriptor{
		Label: e.label("index"),
		Size:  uint64(b.count) * uint64(b.typ.Size()),
		Usage: gputypes.BufferUsageIndex,
	})
	if err != nil {
		return IndexBuffer{}, fmt.Errorf("g3d: index buffer: %w", err)
	}
	Logger().Debug("g3d: index buffer built", "indices", b.count, "bytes", buf.Size())
	return IndexBuffer{h: e.indexBuffers.insert(e.serial, indexBufferData{
		count:  b.count,
		typ:    b.typ,
		buffer: buf,
	})}, nil
}

func (ib IndexBuffer) data(e *Engine) (*indexBufferData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.indexBuffers.get(e.serial, ib.h)
}

// IndexCount returns the number of indices.
func (ib IndexBuffer) IndexCount(e *Engine) (uint32, error) {
	d, err := ib.data(e)
	if err != nil {
		return 0, err
	}
	return d.count, nil
}

// Type returns the index element type.
func (ib IndexBuffer) Type(e *Engine) (IndexType, error) {
	d, err := ib.data(e)
	if err != nil {
		return 0, err
	}
	return d.typ, nil
}

// SetBuffer uploads src at byteOffset. The source is consumed even when the
// upload fails.
func (ib IndexBuffer) SetBuffer(e *Engine, src Source, byteOffset uint32) error {
	d, err := ib.data(e)
	if err != nil {
		return err
	}
	return e.consume(src, func(data []byte, _ *PixelBufferDescriptor) error {
		if len(data)%int(d.typ.Size()) != 0 {
			return fmt.Errorf("%w: %d bytes is not a whole number of indices",
				ErrInvalidArgument, len(data))
		}
		if uint64(byteOffset)+uint64(len(data)) > d.buffer.Size() {
			return fmt.Errorf("%w: %d bytes at offset %d into index buffer of %d",
				ErrBufferOverflow, len(data), byteOffset, d.buffer.Size())
		}
		if err := d.buffer.Write(uint64(byteOffset), data); err != nil {
			return fmt.Errorf("g3d: index upload: %w", err)
		}
		return nil
	})
}

// DestroyIndexBuffer destroys ib.
func (e *Engine) DestroyIndexBuffer(ib IndexBuffer) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	d, err := e.indexBuffers.remove(e.serial, ib.h)
	if err != nil {
		return err
	}
	d.buffer.Destroy()
	return nil
}
