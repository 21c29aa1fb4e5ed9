package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaCreateAndGet(t *testing.T) {
	a := NewArena[string]()
	ref, ptr := a.Create(func() string { return "hello" })
	require.Equal(t, "hello", *ptr)
	require.True(t, a.IsLive(ref))
	require.Equal(t, "hello", *a.Get(ref))
	require.Equal(t, 1, a.Len())
}

func TestArenaDestroyedRefIsNotLive(t *testing.T) {
	a := NewArena[int]()
	ref, _ := a.Create(func() int { return 42 })
	a.Destroy(ref)

	require.False(t, a.IsLive(ref))
	require.Nil(t, a.Get(ref))
	require.Equal(t, 0, a.Len())
}

func TestArenaReusedSlotDoesNotResurrectStaleRef(t *testing.T) {
	a := NewArena[int]()
	first, _ := a.Create(func() int { return 1 })
	a.Destroy(first)

	second, ptr := a.Create(func() int { return 2 })
	require.Equal(t, 2, *ptr)
	require.False(t, a.IsLive(first), "a stale Ref must not be reported live after its slot is reused")
	require.True(t, a.IsLive(second))
}

func TestArenaGrowsBeyondOneSlab(t *testing.T) {
	a := NewArena[int]()
	refs := make([]Ref, 0, slabSize+1)
	for i := 0; i < slabSize+1; i++ {
		ref, _ := a.Create(func() int { return i })
		refs = append(refs, ref)
	}
	require.Equal(t, slabSize+1, a.Len())
	for _, ref := range refs {
		require.True(t, a.IsLive(ref))
	}
}

func TestArenaForEachVisitsOnlyOccupiedSlots(t *testing.T) {
	a := NewArena[int]()
	ref1, _ := a.Create(func() int { return 1 })
	_, _ = a.Create(func() int { return 2 })
	a.Destroy(ref1)

	var seen []int
	a.ForEach(func(_ Ref, v *int) { seen = append(seen, *v) })
	require.Equal(t, []int{2}, seen)
}
