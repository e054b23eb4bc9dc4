package g3d

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestNewBufferEmpty(t *testing.T) {
	e := newTestEngine(t)
	for _, src := range [][]byte{nil, {}} {
		if _, err := e.NewBuffer(src); !errors.Is(err, ErrEmptyBuffer) {
			t.Errorf("NewBuffer(%v) error = %v, want ErrEmptyBuffer", src, err)
		}
	}
	if _, err := e.NewPixelBuffer(nil, PixelRGBA, PixelUByte); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("NewPixelBuffer(nil) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestNewBufferCopyIn(t *testing.T) {
	e := newTestEngine(t)

	src := []byte{1, 2, 3, 4, 5}
	d, err := e.NewBuffer(src)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = 99
	if got := d.Bytes(); !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Bytes() = %v after source mutation", got)
	}

	got := d.Bytes()
	got[1] = 42
	if d.Bytes()[1] != 2 {
		t.Error("Bytes() should return a copy")
	}
}

func TestFloat32Triple(t *testing.T) {
	e := newTestEngine(t)

	d, err := e.NewBuffer(Float32Bytes(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 12 {
		t.Fatalf("Len() = %d, want 12", d.Len())
	}
	b := d.Bytes()
	want := []float32{1, 0, 0}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])); got != w {
			t.Errorf("component %d = %v, want %v", i, got, w)
		}
	}
}

func TestTypedBytes(t *testing.T) {
	tests := []struct {
		name string
		got  Bytes
		want []byte
	}{
		{"uint16", Uint16Bytes(1, 0x0203), []byte{1, 0, 3, 2}},
		{"uint32", Uint32Bytes(0x01020304), []byte{4, 3, 2, 1}},
		{"int16", Int16Bytes(-1, 32767), []byte{0xFF, 0xFF, 0xFF, 0x7F}},
		{"float32", Float32Bytes(1), []byte{0, 0, 0x80, 0x3F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", []byte(tt.got), tt.want)
			}
		})
	}
}

func TestDescriptorConsumedOnce(t *testing.T) {
	e := newTestEngine(t)

	calls := 0
	d, err := e.NewBuffer(Uint16Bytes(0, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	d.SetReleaseCallback(func() { calls++ })

	ib, err := NewIndexBufferBuilder().IndexCount(3).BufferType(IndexUShort).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	if err := ib.SetBuffer(e, d, 0); err != nil {
		t.Fatalf("first SetBuffer() error = %v", err)
	}
	if !d.Released() || calls != 1 {
		t.Fatalf("after consume: released = %v, callback calls = %d", d.Released(), calls)
	}
	if d.Bytes() != nil {
		t.Error("Bytes() of a consumed descriptor should be nil")
	}
	if err := ib.SetBuffer(e, d, 0); !errors.Is(err, ErrDescriptorConsumed) {
		t.Errorf("second SetBuffer() error = %v, want ErrDescriptorConsumed", err)
	}
	if err := e.Release(d); !errors.Is(err, ErrDescriptorConsumed) {
		t.Errorf("Release() of consumed descriptor error = %v, want ErrDescriptorConsumed", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if e.Stats().Descriptors != 0 {
		t.Errorf("live descriptors = %d, want 0", e.Stats().Descriptors)
	}
}

func TestDescriptorConsumedOnFailure(t *testing.T) {
	e := newTestEngine(t)

	ib, err := NewIndexBufferBuilder().IndexCount(1).Build(e)
	if err != nil {
		t.Fatal(err)
	}
	d, err := e.NewBuffer(Uint32Bytes(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if err := ib.SetBuffer(e, d, 0); err == nil {
		t.Fatal("SetBuffer() of oversized data should fail")
	}
	if !d.Released() {
		t.Error("descriptor should be released even when the upload fails")
	}
}

func TestRelease(t *testing.T) {
	e := newTestEngine(t)
	other := newTestEngine(t)

	d, err := e.NewBuffer([]byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Release(d); !errors.Is(err, ErrForeignEngine) {
		t.Errorf("Release() on other engine error = %v, want ErrForeignEngine", err)
	}
	if err := e.Release(d); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := e.Release(d); !errors.Is(err, ErrDescriptorConsumed) {
		t.Errorf("second Release() error = %v, want ErrDescriptorConsumed", err)
	}
	if err := e.Release(nil); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Release(nil) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestNewCompressedPixelBuffer(t *testing.T) {
	e := newTestEngine(t)
	data := make([]byte, 48)

	tests := []struct {
		name     string
		format   TextureFormat
		faceSize int
		wantFace int
		wantErr  error
	}{
		{"whole", TextureFormatETC2RGB8, 0, 48, nil},
		{"faces", TextureFormatETC2RGB8, 8, 8, nil},
		{"uncompressed", TextureFormatRGBA8, 0, 0, ErrInvalidArgument},
		{"face too large", TextureFormatETC2RGB8, 64, 0, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.NewCompressedPixelBuffer(data, tt.format, tt.faceSize)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !d.Compressed || d.FaceSize != tt.wantFace || d.Len() != 48 {
				t.Errorf("descriptor = %+v", d)
			}
		})
	}
}
