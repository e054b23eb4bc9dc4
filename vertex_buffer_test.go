package g3d

import (
	"errors"
	"testing"
)

func TestAttributeTypeSize(t *testing.T) {
	tests := []struct {
		typ  AttributeType
		want uint32
	}{
		{AttributeByte, 1},
		{AttributeUByte4, 4},
		{AttributeShort, 2},
		{AttributeShort4, 8},
		{AttributeUShort2, 4},
		{AttributeInt, 4},
		{AttributeUInt, 4},
		{AttributeFloat, 4},
		{AttributeFloat3, 12},
		{AttributeFloat4, 16},
		{AttributeHalf2, 4},
		{AttributeHalf4, 8},
		{attributeTypeCount, 0},
	}
	for _, tt := range tests {
		if got := tt.typ.Size(); got != tt.want {
			t.Errorf("AttributeType(%d).Size() = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestVertexBufferBuild(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		b       *VertexBufferBuilder
		sizes   []uint64
		wantErr error
	}{
		{
			name: "two streams",
			b: NewVertexBufferBuilder().VertexCount(4).BufferCount(2).
				Attribute(AttributePosition, 0, AttributeFloat3, 0, 0).
				Attribute(AttributeTangents, 1, AttributeShort4, 0, 0).
				Normalized(AttributeTangents, true),
			sizes: []uint64{48, 32},
		},
		{
			name: "interleaved",
			b: NewVertexBufferBuilder().VertexCount(3).BufferCount(1).
				Attribute(AttributePosition, 0, AttributeFloat3, 0, 20).
				Attribute(AttributeUV0, 0, AttributeFloat2, 12, 20),
			sizes: []uint64{60},
		},
		{
			name:    "no vertex count",
			b:       NewVertexBufferBuilder().BufferCount(1),
			wantErr: ErrMissingField,
		},
		{
			name:    "no buffer count",
			b:       NewVertexBufferBuilder().VertexCount(3),
			wantErr: ErrMissingField,
		},
		{
			name: "unused buffer",
			b: NewVertexBufferBuilder().VertexCount(3).BufferCount(2).
				Attribute(AttributePosition, 0, AttributeFloat3, 0, 0),
			wantErr: ErrMissingField,
		},
		{
			name: "buffer index out of range",
			b: NewVertexBufferBuilder().VertexCount(3).BufferCount(1).
				Attribute(AttributePosition, 1, AttributeFloat3, 0, 0),
			wantErr: ErrInvalidArgument,
		},
		{
			name: "stride too small",
			b: NewVertexBufferBuilder().VertexCount(3).BufferCount(1).
				Attribute(AttributePosition, 0, AttributeFloat3, 0, 8),
			wantErr: ErrInvalidArgument,
		},
		{
			name: "too many buffers",
			b: NewVertexBufferBuilder().VertexCount(3).BufferCount(maxVertexBuffers+1).
				Attribute(AttributePosition, 0, AttributeFloat3, 0, 0),
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "bad attribute",
			b:       NewVertexBufferBuilder().VertexCount(3).BufferCount(1).Attribute(attributeCount, 0, AttributeFloat, 0, 0),
			wantErr: ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vb, err := tt.b.Build(e)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			for i, want := range tt.sizes {
				got, err := vb.BufferSize(e, i)
				if err != nil || got != want {
					t.Errorf("BufferSize(%d) = %d, %v, want %d", i, got, err, want)
				}
			}
		})
	}
}

func TestVertexBufferSetBufferAt(t *testing.T) {
	e := newTestEngine(t)
	vb, err := NewVertexBufferBuilder().VertexCount(2).BufferCount(1).
		Attribute(AttributePosition, 0, AttributeFloat3, 0, 0).Build(e)
	if err != nil {
		t.Fatal(err)
	}

	if err := vb.SetBufferAt(e, 0, Float32Bytes(1, 0, 0, 0, 1, 0), 0); err != nil {
		t.Errorf("SetBufferAt() error = %v", err)
	}
	if err := vb.SetBufferAt(e, 0, Float32Bytes(0, 0, 1), 12); err != nil {
		t.Errorf("SetBufferAt(offset) error = %v", err)
	}
	if err := vb.SetBufferAt(e, 0, Float32Bytes(0, 0, 1), 16); !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("SetBufferAt(overflow) error = %v, want ErrBufferOverflow", err)
	}
	if err := vb.SetBufferAt(e, 1, Float32Bytes(0), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetBufferAt(bad index) error = %v, want ErrInvalidArgument", err)
	}
	if n, _ := vb.VertexCount(e); n != 2 {
		t.Errorf("VertexCount() = %d, want 2", n)
	}
}

func TestDestroyVertexBuffer(t *testing.T) {
	e := newTestEngine(t)
	vb, err := NewVertexBufferBuilder().VertexCount(1).BufferCount(1).
		Attribute(AttributePosition, 0, AttributeFloat3, 0, 0).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.DestroyVertexBuffer(vb); err != nil {
		t.Fatalf("DestroyVertexBuffer() error = %v", err)
	}
	if err := e.DestroyVertexBuffer(vb); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("second destroy error = %v, want ErrStaleHandle", err)
	}
	if _, err := vb.VertexCount(e); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("VertexCount() after destroy error = %v, want ErrStaleHandle", err)
	}
	if _, err := (VertexBuffer{}).VertexCount(e); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("zero handle error = %v, want ErrInvalidHandle", err)
	}
	if e.Stats().DeviceBuffers != 0 {
		t.Errorf("device buffers = %d, want 0", e.Stats().DeviceBuffers)
	}
}
