package g3d

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/internal/device"
)

// VertexAttribute identifies a vertex stream.
type VertexAttribute uint8

// Vertex attributes.
const (
	AttributePosition VertexAttribute = iota
	AttributeTangents
	AttributeColor
	AttributeUV0
	AttributeUV1
	AttributeBoneIndices
	AttributeBoneWeights
	attributeCount
)

// AttributeType is the element type of a vertex attribute.
type AttributeType uint8

// Attribute types.
const (
	AttributeByte AttributeType = iota
	AttributeByte2
	AttributeByte3
	AttributeByte4
	AttributeUByte
	AttributeUByte2
	AttributeUByte3
	AttributeUByte4
	AttributeShort
	AttributeShort2
	AttributeShort3
	AttributeShort4
	AttributeUShort
	AttributeUShort2
	AttributeUShort3
	AttributeUShort4
	AttributeInt
	AttributeUInt
	AttributeFloat
	AttributeFloat2
	AttributeFloat3
	AttributeFloat4
	AttributeHalf
	AttributeHalf2
	AttributeHalf3
	AttributeHalf4
	attributeTypeCount
)

// Size returns the size of one element in bytes, or 0 for unknown types.
func (t AttributeType) Size() uint32 {
	switch {
	case t <= AttributeUByte4:
		return uint32(t%4) + 1
	case t <= AttributeUShort4:
		return 2 * (uint32(t-AttributeShort)%4 + 1)
	case t <= AttributeUInt:
		return 4
	case t <= AttributeFloat4:
		return 4 * (uint32(t-AttributeFloat) + 1)
	case t <= AttributeHalf4:
		return 2 * (uint32(t-AttributeHalf) + 1)
	default:
		return 0
	}
}

// maxVertexBuffers is the number of buffers a VertexBuffer may bind.
const maxVertexBuffers = 8

type attributeLayout struct {
	enabled    bool
	buffer     uint8
	typ        AttributeType
	offset     uint32
	stride     uint32
	normalized bool
}

// VertexBuffer is a handle to a set of vertex buffers sharing a vertex count.
type VertexBuffer struct{ h handle }

// IsZero reports whether v is the zero handle.
func (v VertexBuffer) IsZero() bool { return v.h.isZero() }

type vertexBufferData struct {
	vertexCount uint32
	attrs       [attributeCount]attributeLayout
	buffers     []*device.Buffer
}

func (vb *vertexBufferData) destroy() {
	for _, b := range vb.buffers {
		b.Destroy()
	}
}

// VertexBufferBuilder configures a VertexBuffer.
type VertexBufferBuilder struct {
	builderState
	vertexCount uint32
	bufferCount int
	attrs       [attributeCount]attributeLayout
	err         error
}

// NewVertexBufferBuilder returns an empty builder.
// VertexCount and BufferCount are required.
func NewVertexBufferBuilder() *VertexBufferBuilder {
	return &VertexBufferBuilder{builderState: builderState{kind: "vertex buffer"}}
}

// VertexCount sets the number of vertices.
func (b *VertexBufferBuilder) VertexCount(n uint32) *VertexBufferBuilder {
	b.mutate()
	b.vertexCount = n
	return b
}

// BufferCount sets the number of buffers holding the attributes.
func (b *VertexBufferBuilder) BufferCount(n int) *VertexBufferBuilder {
	b.mutate()
	b.bufferCount = n
	return b
}

// Attribute declares where attr is stored. A byteStride of 0 means the
// attributes are tightly packed.
func (b *VertexBufferBuilder) Attribute(attr VertexAttribute, bufferIndex int, typ AttributeType, byteOffset, byteStride uint32) *VertexBufferBuilder {
	b.mutate()
	switch {
	case attr >= attributeCount:
		b.setErr(fmt.Errorf("%w: vertex attribute %d", ErrInvalidArgument, attr))
	case typ >= attributeTypeCount:
		b.setErr(fmt.Errorf("%w: attribute type %d", ErrInvalidArgument, typ))
	case bufferIndex < 0 || bufferIndex >= maxVertexBuffers:
		b.setErr(fmt.Errorf("%w: buffer index %d", ErrInvalidArgument, bufferIndex))
	default:
		if byteStride == 0 {
			byteStride = typ.Size()
		}
		b.attrs[attr] = attributeLayout{
			enabled:    true,
			buffer:     uint8(bufferIndex),
			typ:        typ,
			offset:     byteOffset,
			stride:     byteStride,
			normalized: b.attrs[attr].normalized,
		}
	}
	return b
}

// Normalized sets whether integer data of attr maps to [0, 1] or [-1, 1].
func (b *VertexBufferBuilder) Normalized(attr VertexAttribute, normalized bool) *VertexBufferBuilder {
	b.mutate()
	if attr >= attributeCount {
		b.setErr(fmt.Errorf("%w: vertex attribute %d", ErrInvalidArgument, attr))
		return b
	}
	b.attrs[attr].normalized = normalized
	return b
}

func (b *VertexBufferBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// bufferSizes returns the byte size of each buffer implied by the layout.
func (b *VertexBufferBuilder) bufferSizes() ([]uint64, error) {
	sizes := make([]uint64, b.bufferCount)
	for attr, a := range b.attrs {
		if !a.enabled {
			continue
		}
		if int(a.buffer) >= b.bufferCount {
			return nil, fmt.Errorf("%w: attribute %d uses buffer %d of %d",
				ErrInvalidArgument, attr, a.buffer, b.bufferCount)
		}
		if a.stride < a.typ.Size() {
			return nil, fmt.Errorf("%w: attribute %d stride %d < element size %d",
				ErrInvalidArgument, attr, a.stride, a.typ.Size())
		}
		end := uint64(a.offset) + uint64(b.vertexCount-1)*uint64(a.stride) + uint64(a.typ.Size())
		sizes[a.buffer] = max(sizes[a.buffer], end)
	}
	for i, n := range sizes {
		if n == 0 {
			return nil, fmt.Errorf("%w: buffer %d has no attributes", ErrMissingField, i)
		}
	}
	return sizes, nil
}

// Build creates the vertex buffer and consumes the builder.
func (b *VertexBufferBuilder) Build(e *Engine) (VertexBuffer, error) {
	if err := b.consume(e); err != nil {
		return VertexBuffer{}, err
	}
	if b.err != nil {
		return VertexBuffer{}, b.err
	}
	if b.vertexCount == 0 {
		return VertexBuffer{}, fmt.Errorf("%w: vertex count", ErrMissingField)
	}
	if b.bufferCount <= 0 {
		return VertexBuffer{}, fmt.Errorf("%w: buffer count", ErrMissingField)
	}
	if b.bufferCount > maxVertexBuffers {
		return VertexBuffer{}, fmt.Errorf("%w: %d buffers, at most %d",
			ErrInvalidArgument, b.bufferCount, maxVertexBuffers)
	}
	sizes, err := b.bufferSizes()
	if err != nil {
		return VertexBuffer{}, err
	}

	data := vertexBufferData{vertexCount: b.vertexCount, attrs: b.attrs}
	for _, size := range sizes {
		buf, err := e.dev.CreateBuffer(&device.BufferDescriptor{
			Label: e.label("vertex"),
			Size:  size,
			Usage: gputypes.BufferUsageVertex,
		})
		if err != nil {
			data.destroy()
			return VertexBuffer{}, fmt.Errorf("g3d: vertex buffer: %w", err)
		}
		data.buffers = append(data.buffers, buf)
	}

	Logger().Debug("g3d: vertex buffer built", "vertices", b.vertexCount, "buffers", len(sizes))
	return VertexBuffer{h: e.vertexBuffers.insert(e.serial, data)}, nil
}

func (v VertexBuffer) data(e *Engine) (*vertexBufferData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.vertexBuffers.get(e.serial, v.h)
}

// VertexCount returns the number of vertices.
func (v VertexBuffer) VertexCount(e *Engine) (uint32, error) {
	vb, err := v.data(e)
	if err != nil {
		return 0, err
	}
	return vb.vertexCount, nil
}

// BufferSize returns the byte size of buffer index.
func (v VertexBuffer) BufferSize(e *Engine, index int) (uint64, error) {
	vb, err := v.data(e)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(vb.buffers) {
		return 0, fmt.Errorf("%w: buffer index %d", ErrInvalidArgument, index)
	}
	return vb.buffers[index].Size(), nil
}

// SetBufferAt uploads src into buffer index at byteOffset. The source is
// consumed even when the upload fails.
func (v VertexBuffer) SetBufferAt(e *Engine, index int, src Source, byteOffset uint32) error {
	vb, err := v.data(e)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(vb.buffers) {
		return fmt.Errorf("%w: buffer index %d of %d", ErrInvalidArgument, index, len(vb.buffers))
	}
	buf := vb.buffers[index]
	return e.consume(src, func(data []byte, _ *PixelBufferDescriptor) error {
		if uint64(byteOffset)+uint64(len(data)) > buf.Size() {
			return fmt.Errorf("%w: %d bytes at offset %d into vertex buffer of %d",
				ErrBufferOverflow, len(data), byteOffset, buf.Size())
		}
		if err := buf.Write(uint64(byteOffset), data); err != nil {
			return fmt.Errorf("g3d: vertex upload: %w", err)
		}
		Logger().Debug("g3d: vertex data uploaded", "buffer", index, "bytes", len(data))
		return nil
	})
}

// DestroyVertexBuffer destroys v. Renderables referencing it keep a stale
// handle.
func (e *Engine) DestroyVertexBuffer(v VertexBuffer) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	vb, err := e.vertexBuffers.remove(e.serial, v.h)
	if err != nil {
		return err
	}
	vb.destroy()
	return nil
}
