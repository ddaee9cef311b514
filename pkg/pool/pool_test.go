package pool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/genpool/pkg/poolerrors"
	"github.com/ajitpratap0/genpool/pkg/testutil"
)

func TestPool_AddAssignsSlotsAndGenerations(t *testing.T) {
	p := New[string]()

	a := p.Add("a")
	b := p.Add("b")
	c := p.Add("c")

	assert.Equal(t, Slot(0), a.Slot())
	assert.Equal(t, Slot(1), b.Slot())
	assert.Equal(t, Slot(2), c.Slot())

	assert.Equal(t, Generation(1), a.Generation())
	assert.Equal(t, Generation(2), b.Generation())
	assert.Equal(t, Generation(3), c.Generation())

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, p.NumSlots())
	assert.Equal(t, 0, p.PendingEvents(), "add must not queue events")

	for _, h := range []*Handle[string]{a, b, c} {
		rc, ok := p.RefCount(h.Slot())
		require.True(t, ok)
		assert.Equal(t, RefCount(1), rc)
		assert.Equal(t, SlotLive, p.State(h.Slot()))
	}
}

func TestPool_ReuseGetsNewGeneration(t *testing.T) {
	p := New[string]()

	a := p.Add("A")
	require.Equal(t, Slot(0), a.Slot())
	require.Equal(t, Generation(1), a.Generation())
	weakA := a.Weak()

	clone := a.Clone()
	assert.Equal(t, 1, p.PendingEvents())
	a.Release()
	clone.Release()
	assert.Equal(t, 3, p.PendingEvents())

	stats := p.Sync()
	assert.Equal(t, SyncStats{Added: 1, Dropped: 2, Invalidated: 1}, stats)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, SlotVacant, p.State(0))

	_, ok := p.Get(weakA)
	assert.False(t, ok, "weak handle must not resolve after invalidation")

	b := p.Add("B")
	assert.Equal(t, Slot(0), b.Slot(), "freed slot must be reused")
	assert.Equal(t, Generation(2), b.Generation())
	assert.Equal(t, 1, p.NumSlots())

	_, ok = p.Get(weakA)
	assert.False(t, ok, "stale weak handle must not see the new occupant")

	weakB := b.Downgrade()
	v, ok := p.Get(weakB)
	require.True(t, ok, "pending drop must not hide the item before sync")
	assert.Equal(t, "B", *v)
	assert.NotEqual(t, weakA, weakB)
}

func TestPool_NoFalseReuseWhileFull(t *testing.T) {
	const n = 64
	p := New[int](WithCapacity(8))

	handles := make([]*Handle[int], 0, n)
	for i := 0; i < n; i++ {
		_, free := p.FindFreeSlot()
		require.False(t, free, "no slot may be free while every entry is occupied")

		h := p.Add(i)
		require.Equal(t, Slot(i), h.Slot())
		handles = append(handles, h)
	}

	h := p.Add(n)
	assert.Equal(t, Slot(n), h.Slot(), "the N+1th allocation must append")
	assert.Equal(t, n+1, p.NumSlots())

	for i, h := range handles {
		assert.Equal(t, i, *p.At(h), "earlier items must not be overwritten")
	}
}

func TestPool_FindFreeSlotReturnsLowest(t *testing.T) {
	p := New[int]()
	hs := make([]*Handle[int], 5)
	for i := range hs {
		hs[i] = p.Add(i)
	}

	hs[3].Release()
	hs[1].Release()
	p.Sync()

	slot, ok := p.FindFreeSlot()
	require.True(t, ok)
	assert.Equal(t, Slot(1), slot)

	assert.Equal(t, Slot(1), p.Add(10).Slot())
	assert.Equal(t, Slot(3), p.Add(11).Slot())
	assert.Equal(t, Slot(5), p.Add(12).Slot())
}

func TestPool_GenerationsStrictlyIncreasePerSlot(t *testing.T) {
	p := New[int]()
	last := Generation(0)
	for i := 0; i < 20; i++ {
		h := p.Add(i)
		require.Equal(t, Slot(0), h.Slot())
		require.Greater(t, h.Generation(), last)
		last = h.Generation()

		h.Release()
		p.Sync()
	}
	assert.Equal(t, last, p.Stats().Generation)
}

func TestPool_GenerationOverflowPanics(t *testing.T) {
	p := New[int]()
	p.lastGen = maxGeneration - 1

	h := p.Add(1)
	assert.Equal(t, maxGeneration, h.Generation())

	testutil.RequirePoolPanic(t, poolerrors.ErrorTypeOverflow, func() {
		p.Add(2)
	})
}

func TestPool_Stats(t *testing.T) {
	p := New[int]()
	a := p.Add(1)
	b := p.Add(2)
	c := a.Clone()
	a.Release()
	c.Release()
	p.Sync()
	p.Add(3)

	s := p.Stats()
	assert.Equal(t, 2, s.Slots)
	assert.Equal(t, 2, s.Live)
	assert.Equal(t, uint64(3), s.Allocations)
	assert.Equal(t, uint64(1), s.Reuses)
	assert.Equal(t, uint64(1), s.Invalidations)
	assert.Equal(t, uint64(3), s.EventsApplied)
	assert.Equal(t, uint64(1), s.Syncs)
	assert.Equal(t, Generation(3), s.Generation)

	b.Release()
}

func TestPool_Close(t *testing.T) {
	p := New[int](WithName("closing"))
	h := p.Add(1)
	h.Clone()

	p.Close()
	assert.True(t, p.Closed())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.NumSlots())
	assert.Equal(t, 0, p.PendingEvents())

	// handles outliving the pool can still be released
	assert.NotPanics(t, h.Release)
	assert.Equal(t, 0, p.PendingEvents())

	testutil.RequirePoolPanic(t, poolerrors.ErrorTypeContract, func() { p.Add(2) })
	testutil.RequirePoolPanic(t, poolerrors.ErrorTypeContract, func() { p.Sync() })

	// closing twice is harmless
	assert.NotPanics(t, p.Close)
}

func TestPool_ClosedRejectsItemAccess(t *testing.T) {
	p := New[int]()
	h := p.Add(1)
	w := h.Weak()
	p.Close()

	ops := map[string]func(){
		"get":            func() { p.Get(w) },
		"contains":       func() { p.Contains(w) },
		"upgrade":        func() { p.Upgrade(w) },
		"get by slot":    func() { p.GetBySlot(0) },
		"get2 by slot":   func() { p.Get2BySlot(0, 1) },
		"refcount":       func() { p.RefCount(0) },
		"generation":     func() { p.Generation(0) },
		"state":          func() { p.State(0) },
		"find free slot": func() { p.FindFreeSlot() },
		"items":          func() { for range p.Items() {} },
		"all":            func() { for range p.All() {} },
		"slots":          func() { for range p.Slots() {} },
		"invalidate":     func() { p.InvalidateUnreferenced(0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			testutil.RequirePoolPanic(t, poolerrors.ErrorTypeContract, op)
		})
	}

	assert.NotPanics(t, func() {
		_ = p.Name()
		_ = p.Len()
		_ = p.NumSlots()
		_ = p.PendingEvents()
		_ = p.Stats()
	})
}

func TestPool_Name(t *testing.T) {
	assert.Equal(t, "pool", New[int]().Name())
	assert.Equal(t, "entities", New[int](WithName("entities")).Name())
}

func TestHandleSizes(t *testing.T) {
	assert.Equal(t, uintptr(8), unsafe.Sizeof(WeakHandle[int]{}),
		"a weak handle is two 32-bit words")
	assert.LessOrEqual(t, unsafe.Sizeof(Handle[int]{}), 8+2*unsafe.Sizeof(uintptr(0)))
	assert.Equal(t, unsafe.Sizeof(WeakHandle[int]{}), unsafe.Sizeof(WeakHandle[[64]byte]{}),
		"handle size does not depend on the item type")
}

func TestSlot(t *testing.T) {
	assert.True(t, Slot(0).Valid())
	assert.False(t, InvalidSlot.Valid())
	assert.Equal(t, 7, Slot(7).Index())
}

func TestSlotState_String(t *testing.T) {
	tests := []struct {
		state SlotState
		want  string
	}{
		{SlotVacant, "vacant"},
		{SlotLive, "live"},
		{SlotUnreferenced, "unreferenced"},
		{SlotState(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
