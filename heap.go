package g3d

import (
	"fmt"
	"unsafe"
)

const (
	heapPageSize  = 64 << 10
	heapAlignment = 8
)

// heap is the engine's scratch memory: a bump allocator over one backing
// array. Growing the heap moves every live allocation to a new array and
// zeroes the old one, so slices taken before the growth no longer observe
// the data they were created over.
type heap struct {
	mem       []byte
	top       int
	live      map[int]int // offset -> length
	grows     int
	snapshots int
}

// HeapStats describes the scratch heap.
type HeapStats struct {
	Size        int
	Used        int
	Allocations int
	Grows       int
	// Snapshots counts descriptor sources that aliased the heap and were
	// copied out before allocation.
	Snapshots int
}

func newHeap(size int) *heap {
	return &heap{
		mem:  make([]byte, roundPages(size)),
		live: make(map[int]int),
	}
}

func roundPages(n int) int {
	if n <= 0 {
		return heapPageSize
	}
	return (n + heapPageSize - 1) / heapPageSize * heapPageSize
}

// alloc reserves n bytes and returns their offset.
func (h *heap) alloc(n int) int {
	off := (h.top + heapAlignment - 1) &^ (heapAlignment - 1)
	if off+n > len(h.mem) {
		h.grow(off + n)
	}
	h.top = off + n
	h.live[off] = n
	return off
}

func (h *heap) grow(need int) {
	size := len(h.mem)
	for size < need {
		size *= 2
	}
	size = roundPages(size)
	mem := make([]byte, size)
	copy(mem, h.mem[:h.top])
	clear(h.mem)
	Logger().Debug("g3d: scratch heap grown", "from", len(h.mem), "to", size)
	h.mem = mem
	h.grows++
}

// free releases the allocation at off. Space is reclaimed once it is at the
// top of the heap.
func (h *heap) free(off int) {
	if _, ok := h.live[off]; !ok {
		return
	}
	delete(h.live, off)
	top := 0
	for o, n := range h.live {
		top = max(top, o+n)
	}
	h.top = top
}

// view returns the bytes of an allocation. The slice is valid until the
// next alloc.
func (h *heap) view(off, n int) []byte {
	return h.mem[off : off+n : off+n]
}

// aliases reports whether b points into the heap's backing array.
func (h *heap) aliases(b []byte) bool {
	if cap(b) == 0 || len(h.mem) == 0 {
		return false
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(h.mem)))
	end := start + uintptr(cap(h.mem))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return p >= start && p < end
}

func (h *heap) stats() HeapStats {
	return HeapStats{
		Size:        len(h.mem),
		Used:        h.top,
		Allocations: len(h.live),
		Grows:       h.grows,
		Snapshots:   h.snapshots,
	}
}

// Scratch is a region of the engine's scratch heap handed out for staging
// data, for example by decoders that fill pixels before wrapping them in a
// descriptor.
type Scratch struct {
	e     *Engine
	off   int
	n     int
	freed bool
}

// Scratch allocates n bytes of scratch memory.
func (e *Engine) Scratch(n int) (*Scratch, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: scratch of %d bytes", ErrEmptyBuffer, n)
	}
	return &Scratch{e: e, off: e.heap.alloc(n), n: n}, nil
}

// Bytes returns the scratch memory. The slice is only valid until the next
// allocation from the same engine; growth of the heap detaches it.
// Returns nil once freed.
func (s *Scratch) Bytes() []byte {
	if s.freed || s.e.destroyed {
		return nil
	}
	return s.e.heap.view(s.off, s.n)
}

// Len returns the size of the scratch region.
func (s *Scratch) Len() int { return s.n }

// Free returns the region to the heap. Free is idempotent.
func (s *Scratch) Free() {
	if s.freed {
		return
	}
	s.freed = true
	if !s.e.destroyed {
		s.e.heap.free(s.off)
	}
}
