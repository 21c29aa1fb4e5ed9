// Package pool implements the session pool: a slab-allocated arena with
// generation-tagged slots, grounded on the teacher's size-classed slab
// allocator (pool/slab_pool.go) and generic pool interface
// (pool/objpool.go), but reshaped per spec.md Design Notes §9 into a
// generational arena so IsLive is an O(1) generation compare instead of a
// free-list walk.
package pool

const slabSize = 256

type slot[T any] struct {
	val       T
	generation uint32
	occupied  bool
}

type slab[T any] struct {
	slots [slabSize]slot[T]
	free  []uint16 // indices of unoccupied slots within this slab
}

func newSlab[T any]() *slab[T] {
	s := &slab[T]{free: make([]uint16, 0, slabSize)}
	for i := slabSize - 1; i >= 0; i-- {
		s.free = append(s.free, uint16(i))
	}
	return s
}

// Ref is a generational handle into an Arena: (slab index, slot index,
// generation). It is the representation behind a session ReferenceToken
// and is safe to hold across suspension points — IsLive compares the
// stored generation against the slot's current one, so a Ref pointing at
// a freed-and-reused slot is correctly reported dead rather than
// dangling.
type Ref struct {
	slabIdx uint32
	slotIdx uint16
	gen     uint32
}

// Arena is a growable sequence of fixed-capacity slabs of T. Create is
// O(1) amortized; slabs are appended, never removed, so existing Refs
// never need to be revalidated against a shrinking backing array — this
// mirrors the teacher's slab pool choice to keep the first slab forever
// and matches spec.md §4.C's "drop empty slabs (except the first,
// optional)" by simply never dropping any.
type Arena[T any] struct {
	slabs []*slab[T]
}

// NewArena creates an empty Arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Create allocates a slot, constructs T via newVal, and returns a Ref to
// it plus a pointer usable for the duration of the current call stack.
func (a *Arena[T]) Create(newVal func() T) (Ref, *T) {
	for i, s := range a.slabs {
		if len(s.free) > 0 {
			idx := s.free[len(s.free)-1]
			s.free = s.free[:len(s.free)-1]
			sl := &s.slots[idx]
			sl.val = newVal()
			sl.occupied = true
			return Ref{slabIdx: uint32(i), slotIdx: idx, gen: sl.generation}, &sl.val
		}
	}
	s := newSlab[T]()
	a.slabs = append(a.slabs, s)
	idx := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	sl := &s.slots[idx]
	sl.val = newVal()
	sl.occupied = true
	return Ref{slabIdx: uint32(len(a.slabs) - 1), slotIdx: idx, gen: sl.generation}, &sl.val
}

// Get returns a pointer to the value behind ref, or nil if ref is stale.
func (a *Arena[T]) Get(ref Ref) *T {
	sl := a.lookup(ref)
	if sl == nil {
		return nil
	}
	return &sl.val
}

// IsLive reports whether ref still refers to an occupied slot with a
// matching generation.
func (a *Arena[T]) IsLive(ref Ref) bool {
	return a.lookup(ref) != nil
}

// Destroy returns ref's slot to its slab's free list and bumps its
// generation so any Ref copies still held become stale. Precondition:
// IsLive(ref).
func (a *Arena[T]) Destroy(ref Ref) {
	if int(ref.slabIdx) >= len(a.slabs) {
		return
	}
	s := a.slabs[ref.slabIdx]
	sl := &s.slots[ref.slotIdx]
	if !sl.occupied || sl.generation != ref.gen {
		return
	}
	var zero T
	sl.val = zero
	sl.occupied = false
	sl.generation++
	s.free = append(s.free, ref.slotIdx)
}

func (a *Arena[T]) lookup(ref Ref) *slot[T] {
	if int(ref.slabIdx) >= len(a.slabs) {
		return nil
	}
	s := a.slabs[ref.slabIdx]
	if int(ref.slotIdx) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[ref.slotIdx]
	if !sl.occupied || sl.generation != ref.gen {
		return nil
	}
	return sl
}

// ForEach iterates every occupied slot in the arena, calling fn with its
// Ref and value pointer. The callback must not call Create or Destroy.
func (a *Arena[T]) ForEach(fn func(Ref, *T)) {
	for i, s := range a.slabs {
		for j := range s.slots {
			sl := &s.slots[j]
			if sl.occupied {
				fn(Ref{slabIdx: uint32(i), slotIdx: uint16(j), gen: sl.generation}, &sl.val)
			}
		}
	}
}

// Len returns the number of occupied slots across all slabs.
func (a *Arena[T]) Len() int {
	n := 0
	for _, s := range a.slabs {
		n += slabSize - len(s.free)
	}
	return n
}
