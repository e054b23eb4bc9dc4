package g3d

import (
	"errors"
	"testing"
)

func TestIndexBufferBuild(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		b       *IndexBufferBuilder
		typ     IndexType
		wantErr error
	}{
		{"uint default", NewIndexBufferBuilder().IndexCount(6), IndexUInt, nil},
		{"ushort", NewIndexBufferBuilder().IndexCount(6).BufferType(IndexUShort), IndexUShort, nil},
		{"missing count", NewIndexBufferBuilder(), 0, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ib, err := tt.b.Build(e)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if typ, _ := ib.Type(e); typ != tt.typ {
				t.Errorf("Type() = %v, want %v", typ, tt.typ)
			}
			if n, _ := ib.IndexCount(e); n != 6 {
				t.Errorf("IndexCount() = %d, want 6", n)
			}
		})
	}
}

func TestIndexBufferSetBuffer(t *testing.T) {
	e := newTestEngine(t)
	ib, err := NewIndexBufferBuilder().IndexCount(3).BufferType(IndexUShort).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	if err := ib.SetBuffer(e, Uint16Bytes(0, 1, 2), 0); err != nil {
		t.Errorf("SetBuffer() error = %v", err)
	}
	if err := ib.SetBuffer(e, Bytes{1, 2, 3}, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetBuffer(partial index) error = %v, want ErrInvalidArgument", err)
	}
	if err := ib.SetBuffer(e, Uint16Bytes(0, 1, 2, 3, 4), 0); !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("SetBuffer(overflow) error = %v, want ErrBufferOverflow", err)
	}
	if err := e.DestroyIndexBuffer(ib); err != nil {
		t.Fatal(err)
	}
	if err := ib.SetBuffer(e, Uint16Bytes(0), 0); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("SetBuffer() after destroy error = %v, want ErrStaleHandle", err)
	}
}
