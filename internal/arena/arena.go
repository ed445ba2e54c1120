// Package arena provides a slot allocator addressed by generation-checked
// handles. A handle to a freed slot resolves to nil, even after the slot has
// been reused, so holders never observe a recycled object.
package arena

// Handle addresses a slot. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// Nil is the zero handle.
var Nil Handle

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool {
	return h.gen == 0
}

// Index returns the slot index, useful as a stable key for debugging.
func (h Handle) Index() uint32 {
	return h.index
}

type slot[T any] struct {
	gen   uint32
	alive bool
	value T
}

// Arena stores values of T in reusable slots.
type Arena[T any] struct {
	slots []*slot[T]
	free  []uint32
	live  int
}

// New creates an empty arena with room for capacity values.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{slots: make([]*slot[T], 0, capacity)}
}

// Alloc reserves a zeroed slot and returns its handle and a pointer to the value.
// Slots are individually allocated, so the pointer does not move when the
// arena grows; it is reused for a different value once the slot is freed.
func (a *Arena[T]) Alloc() (Handle, *T) {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, &slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	s := a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.alive = true
	var zero T
	s.value = zero
	a.live++
	return Handle{index: idx, gen: s.gen}, &s.value
}

// Get resolves h, returning nil for stale or zero handles.
func (a *Arena[T]) Get(h Handle) *T {
	if h.gen == 0 || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if !s.alive || s.gen != h.gen {
		return nil
	}
	return &s.value
}

// Free releases the slot addressed by h. It reports false if h was stale.
func (a *Arena[T]) Free(h Handle) bool {
	if a.Get(h) == nil {
		return false
	}
	s := a.slots[h.index]
	s.alive = false
	var zero T
	s.value = zero
	a.free = append(a.free, h.index)
	a.live--
	return true
}

// Len returns the number of allocated slots.
func (a *Arena[T]) Len() int {
	return a.live
}

// Reset frees every slot. Outstanding handles become stale.
func (a *Arena[T]) Reset() {
	for i := range a.slots {
		if a.slots[i].alive {
			a.Free(Handle{index: uint32(i), gen: a.slots[i].gen})
		}
	}
}
