package g3d

import "fmt"

// handle identifies a slot in an arena. The zero value is never issued.
type handle struct {
	engine uint64
	index  uint32
	gen    uint32
}

func (h handle) isZero() bool { return h.gen == 0 }

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// arena stores engine objects addressed by generation-checked handles.
// Removing an object bumps its slot generation, so handles issued before
// the removal are rejected even after the slot is reused.
type arena[T any] struct {
	kind  string
	slots []slot[T]
	free  []uint32
	live  int
}

func newArena[T any](kind string) arena[T] {
	return arena[T]{kind: kind}
}

func (a *arena[T]) insert(engine uint64, v T) handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{gen: 1})
	}
	s := &a.slots[idx]
	s.live = true
	s.value = v
	a.live++
	return handle{engine: engine, index: idx, gen: s.gen}
}

func (a *arena[T]) get(engine uint64, h handle) (*T, error) {
	if h.isZero() {
		return nil, fmt.Errorf("%w: zero %s", ErrInvalidHandle, a.kind)
	}
	if h.engine != engine {
		return nil, fmt.Errorf("%w: %s", ErrForeignEngine, a.kind)
	}
	if int(h.index) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s %d", ErrStaleHandle, a.kind, h.index)
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, fmt.Errorf("%w: %s %d (generation %d, current %d)",
			ErrStaleHandle, a.kind, h.index, h.gen, s.gen)
	}
	return &s.value, nil
}

func (a *arena[T]) remove(engine uint64, h handle) (T, error) {
	var zero T
	if _, err := a.get(engine, h); err != nil {
		return zero, err
	}
	s := &a.slots[h.index]
	v := s.value
	s.value = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.index)
	a.live--
	return v, nil
}

// each calls fn for every live object in slot order.
func (a *arena[T]) each(engine uint64, fn func(h handle, v *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(handle{engine: engine, index: uint32(i), gen: s.gen}, &s.value)
		}
	}
}

func (a *arena[T]) len() int { return a.live }
