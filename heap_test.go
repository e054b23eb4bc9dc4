package g3d

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeapAllocAlignment(t *testing.T) {
	h := newHeap(0)
	if len(h.mem) != heapPageSize {
		t.Fatalf("initial size = %d, want %d", len(h.mem), heapPageSize)
	}
	a := h.alloc(3)
	b := h.alloc(5)
	if a != 0 || b != 8 {
		t.Errorf("offsets = %d, %d, want 0, 8", a, b)
	}
	h.free(b)
	if h.top != 3 {
		t.Errorf("top after freeing last = %d, want 3", h.top)
	}
	h.free(a)
	if h.top != 0 {
		t.Errorf("top after freeing all = %d, want 0", h.top)
	}
}

func TestHeapGrowDetachesViews(t *testing.T) {
	h := newHeap(heapPageSize)
	off := h.alloc(16)
	old := h.view(off, 16)
	copy(old, "sixteen bytes!!!")

	h.alloc(heapPageSize) // forces growth
	if h.grows != 1 || len(h.mem) != 2*heapPageSize {
		t.Fatalf("grows = %d, size = %d", h.grows, len(h.mem))
	}
	if !bytes.Equal(h.view(off, 16), []byte("sixteen bytes!!!")) {
		t.Error("live allocation not moved on growth")
	}
	if !bytes.Equal(old, make([]byte, 16)) {
		t.Errorf("view taken before growth still observes %q", old)
	}
	if h.aliases(old) {
		t.Error("old view should not alias the grown heap")
	}
}

func TestDescriptorSnapshotsAliasedSource(t *testing.T) {
	e := newTestEngine(t)

	s, err := e.Scratch(heapPageSize - 8)
	if err != nil {
		t.Fatalf("Scratch() error = %v", err)
	}
	src := s.Bytes()
	for i := range src {
		src[i] = byte(i)
	}
	want := append([]byte(nil), src...)

	// The descriptor allocation does not fit, so the heap grows while the
	// source still points into it.
	d, err := e.NewBuffer(src)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if !bytes.Equal(d.Bytes(), want) {
		t.Error("descriptor built from a heap view lost its contents")
	}
	st := e.Stats().Heap
	if st.Snapshots != 1 || st.Grows != 1 {
		t.Errorf("heap stats = %+v, want 1 snapshot and 1 grow", st)
	}
	if s.Bytes()[1] != 1 {
		t.Error("scratch not moved with the heap")
	}
}

func TestScratch(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Scratch(0); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Scratch(0) error = %v, want ErrEmptyBuffer", err)
	}
	s, err := e.Scratch(32)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 32 || len(s.Bytes()) != 32 {
		t.Errorf("Len() = %d, len(Bytes()) = %d", s.Len(), len(s.Bytes()))
	}
	s.Free()
	s.Free()
	if s.Bytes() != nil {
		t.Error("Bytes() after Free should be nil")
	}
	if used := e.Stats().Heap.Used; used != 0 {
		t.Errorf("heap used after Free = %d, want 0", used)
	}
}
