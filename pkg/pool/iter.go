package pool

import "iter"

// Iterators visit entries in ascending slot order and skip cleared ones.
// Items that are unreferenced but not yet cleared are included. Adding to the
// pool while iterating is allowed; appended entries are visited too. Ranging
// over an iterator of a closed pool panics.

// Items yields a pointer to every present item.
func (p *Pool[T]) Items() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		p.checkOpen("iterate")
		for i := 0; i < len(p.entries); i++ {
			if !p.entries[i].present {
				continue
			}
			if !yield(&p.entries[i].item) {
				return
			}
		}
	}
}

// All yields every present item with its slot.
func (p *Pool[T]) All() iter.Seq2[Slot, *T] {
	return func(yield func(Slot, *T) bool) {
		p.checkOpen("iterate")
		for i := 0; i < len(p.entries); i++ {
			if !p.entries[i].present {
				continue
			}
			if !yield(Slot(i), &p.entries[i].item) {
				return
			}
		}
	}
}

// Slots yields the slot of every present item.
func (p *Pool[T]) Slots() iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		p.checkOpen("iterate")
		for i := 0; i < len(p.entries); i++ {
			if p.entries[i].present && !yield(Slot(i)) {
				return
			}
		}
	}
}
