package pool

import (
	"fmt"

	"github.com/ajitpratap0/genpool/pkg/poolerrors"
	"github.com/ajitpratap0/genpool/pkg/smpsc"
)

// Handle is an owning reference to an item in a Pool.
//
// Any number of handles may refer to the same item; each one is counted.
// Go has no destructors, so a handle must be released explicitly:
//
//	h := p.Add(item)
//	defer h.Release()
//
// A handle that is never released keeps its item alive for the lifetime of
// the pool.
type Handle[T any] struct {
	slot     Slot
	gen      Generation
	tx       *smpsc.Sender[message]
	released bool
}

func newHandle[T any](slot Slot, gen Generation, tx *smpsc.Sender[message]) *Handle[T] {
	return &Handle[T]{
		slot: slot,
		gen:  gen,
		tx:   tx.Clone(),
	}
}

// Slot returns the slot the item occupies.
func (h *Handle[T]) Slot() Slot {
	return h.slot
}

// Generation returns the generation of the referenced occupant.
func (h *Handle[T]) Generation() Generation {
	return h.gen
}

// Released reports whether Release or Downgrade has been called.
func (h *Handle[T]) Released() bool {
	return h.released
}

// Clone returns another owning handle to the same item and queues a "new"
// event for it.
func (h *Handle[T]) Clone() *Handle[T] {
	h.mustHold("clone")
	h.tx.Send(message{kind: msgNew, slot: h.slot, gen: h.gen})
	return &Handle[T]{
		slot: h.slot,
		gen:  h.gen,
		tx:   h.tx.Clone(),
	}
}

// Release queues a "drop" event. Only the first call has an effect.
func (h *Handle[T]) Release() {
	if h.released {
		return
	}
	h.released = true
	h.tx.Send(message{kind: msgDrop, slot: h.slot, gen: h.gen})
}

// Weak returns a non-owning handle to the same item. h stays valid.
func (h *Handle[T]) Weak() WeakHandle[T] {
	return WeakHandle[T]{slot: h.slot, gen: h.gen}
}

// Downgrade releases h and returns a weak handle to the same item.
func (h *Handle[T]) Downgrade() WeakHandle[T] {
	w := h.Weak()
	h.Release()
	return w
}

// Equal reports whether both handles refer to the same occupant.
func (h *Handle[T]) Equal(other *Handle[T]) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.slot == other.slot && h.gen == other.gen
}

// String implements fmt.Stringer.
func (h *Handle[T]) String() string {
	return fmt.Sprintf("Handle(slot=%d, gen=%d)", h.slot, h.gen)
}

func (h *Handle[T]) mustHold(op string) {
	if h.released {
		panic(poolerrors.Newf(poolerrors.ErrorTypeContract, "%s of released handle", op).
			WithDetail("slot", h.slot).
			WithDetail("generation", h.gen))
	}
}

// WeakHandle is a non-owning reference to an item in a Pool. It carries only
// the identity needed to revalidate against the slot table and never keeps an
// item alive. Two weak handles are equal iff slot and generation match, so
// the type works as a map key.
//
// The zero WeakHandle never resolves.
type WeakHandle[T any] struct {
	slot Slot
	gen  Generation
}

// Slot returns the slot the item occupied when the handle was made.
func (w WeakHandle[T]) Slot() Slot {
	return w.slot
}

// Generation returns the generation the handle was made for.
func (w WeakHandle[T]) Generation() Generation {
	return w.gen
}

// IsZero reports whether w is the zero value.
func (w WeakHandle[T]) IsZero() bool {
	return w.gen == 0
}

// String implements fmt.Stringer.
func (w WeakHandle[T]) String() string {
	return fmt.Sprintf("WeakHandle(slot=%d, gen=%d)", w.slot, w.gen)
}
