package pool

import (
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// Pointers returned by the accessors below alias the slot table. They stay
// valid until the next Add that grows the table.

// At returns the item h refers to. A strong handle guarantees the item is
// present, so a missing item is a broken invariant and panics.
func (p *Pool[T]) At(h *Handle[T]) *T {
	p.checkOpen("index")
	h.mustHold("index")
	if !p.tx.SameQueue(h.tx) {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "handle belongs to another pool").
			WithDetail("pool", p.name).
			WithDetail("slot", h.slot))
	}
	if h.slot.Index() >= len(p.entries) {
		panic(poolerrors.New(poolerrors.ErrorTypeInternal, "strong handle slot out of range").
			WithDetail("slot", h.slot).
			WithDetail("slots", len(p.entries)))
	}

	e := &p.entries[h.slot]
	if !e.present || e.gen != h.gen {
		panic(poolerrors.New(poolerrors.ErrorTypeInternal, "dropped entry found while a strong handle exists").
			WithDetail("slot", h.slot).
			WithDetail("generation", h.gen).
			WithDetail("current", e.gen))
	}
	return &e.item
}

// Get returns the item w refers to, or false if the slot holds a different
// occupant or nothing at all.
func (p *Pool[T]) Get(w WeakHandle[T]) (*T, bool) {
	p.checkOpen("get")
	if w.IsZero() || w.slot.Index() >= len(p.entries) {
		return nil, false
	}
	e := &p.entries[w.slot]
	if e.gen != w.gen || !e.present {
		return nil, false
	}
	return &e.item, true
}

// Contains reports whether w still resolves.
func (p *Pool[T]) Contains(w WeakHandle[T]) bool {
	_, ok := p.Get(w)
	return ok
}

// Upgrade turns w back into a strong handle. It fails if the slot holds a
// different generation, or if the applied count is already zero: such an
// item is about to be cleared by a pending sync and must not gain a new
// owner. The new reference is counted immediately, so drops already queued
// for the slot cannot clear the item out from under it.
//
// w must come from this pool; a slot beyond the table panics.
func (p *Pool[T]) Upgrade(w WeakHandle[T]) (*Handle[T], bool) {
	p.checkOpen("upgrade")
	if w.IsZero() {
		return nil, false
	}
	if w.slot.Index() >= len(p.entries) {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "upgrade of weak handle beyond slot table").
			WithDetail("slot", w.slot).
			WithDetail("slots", len(p.entries)))
	}

	e := &p.entries[w.slot]
	if e.refs == 0 || e.gen != w.gen || !e.present {
		return nil, false
	}
	if e.refs == maxRefCount {
		panic(poolerrors.New(poolerrors.ErrorTypeOverflow, "reference count exhausted").
			WithDetail("slot", w.slot))
	}
	e.refs++
	return newHandle[T](w.slot, w.gen, p.tx), true
}

// GetBySlot returns the item in slot regardless of generation.
func (p *Pool[T]) GetBySlot(slot Slot) (*T, bool) {
	p.checkOpen("get by slot")
	if slot.Index() >= len(p.entries) {
		return nil, false
	}
	e := &p.entries[slot]
	if !e.present {
		return nil, false
	}
	return &e.item, true
}

// Get2BySlot returns the items in two distinct slots. Passing the same slot
// twice is a contract violation and panics. It returns false if either slot
// is empty or out of range.
func (p *Pool[T]) Get2BySlot(s0, s1 Slot) (*T, *T, bool) {
	p.checkOpen("get by slot")
	if s0 == s1 {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "Get2BySlot requires distinct slots").
			WithDetail("slot", s0))
	}
	a, ok := p.GetBySlot(s0)
	if !ok {
		return nil, nil, false
	}
	b, ok := p.GetBySlot(s1)
	if !ok {
		return nil, nil, false
	}
	return a, b, true
}

// RefCount returns the applied reference count of slot. Pending events are
// not included.
func (p *Pool[T]) RefCount(slot Slot) (RefCount, bool) {
	p.checkOpen("refcount")
	if slot.Index() >= len(p.entries) {
		return 0, false
	}
	return p.entries[slot].refs, true
}

// Generation returns the generation of the last occupant of slot, which is
// kept after the item is cleared.
func (p *Pool[T]) Generation(slot Slot) (Generation, bool) {
	p.checkOpen("generation")
	if slot.Index() >= len(p.entries) {
		return 0, false
	}
	return p.entries[slot].gen, true
}

// State describes slot as of the last sync.
func (p *Pool[T]) State(slot Slot) SlotState {
	p.checkOpen("state")
	if slot.Index() >= len(p.entries) {
		return SlotVacant
	}
	e := &p.entries[slot]
	switch {
	case !e.present:
		return SlotVacant
	case e.refs == 0:
		return SlotUnreferenced
	default:
		return SlotLive
	}
}
