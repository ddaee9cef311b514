// Package pool implements a generational object pool with reference-counted
// handles. Items live in a slot table that only ever grows; each occupant of
// a slot is identified by a pool-wide generation, so stale references can be
// told apart from the current occupant without comparing pointers.
//
// # Architecture
//
// Core Types:
//
//   - Pool[T]: the slot table plus the consuming end of an event queue
//   - Handle[T]: owning reference; creating or releasing one queues an event
//   - WeakHandle[T]: (slot, generation) pair, validated at lookup time
//
// Handles never touch the slot table. Cloning a handle queues a "new" event
// and releasing it queues a "drop" event on a queue shared by every handle of
// the pool (see package smpsc). Nothing is applied until the owner calls
// Sync, which drains the queue in order and clears every item whose count
// reaches zero. Until then an unreferenced item stays readable, which gives
// the owner a fixed checkpoint, for example once per frame:
//
//	p := pool.New[Entity](pool.WithCapacity(1024))
//
//	h := p.Add(Entity{Name: "player"})
//	target := h.Weak()
//
//	p.At(h).HP -= 10
//	h.Release()
//
//	p.Sync() // the entity is cleared here
//
//	if _, ok := p.Get(target); !ok {
//	    // stale: the slot's occupant is gone
//	}
//
// # Slots and Generations
//
// A Slot is a permanent index into the table; entries are cleared but never
// removed or reordered. Every Add draws a fresh generation from a pool-wide
// counter, so a slot that is reused gets a strictly greater generation than
// any weak handle previously issued for it. Exhausting the counter is fatal.
//
// Free slots are found by a linear scan in ascending slot order.
//
// # Reference Counts
//
// The count stored in an entry is the count as of the last sync. Events
// still sitting in the queue are pending. Upgrade refuses slots whose applied
// count is already zero, so a slot waiting to be cleared cannot be revived.
//
// # Errors
//
// Ordinary absence is reported with (zero, false). Contract violations, such
// as aliasing one slot in Get2BySlot or using a released handle, and fatal
// conditions, such as generation exhaustion, panic with a *poolerrors.Error.
//
// # Closing
//
// Close empties the table and closes the queue. From then on every
// operation that touches items or slots panics with a contract error, the
// same as At or Upgrade would; only the counters (Len, NumSlots,
// PendingEvents, Stats) and Name stay readable. Releasing a handle that
// outlived its pool is still allowed and does nothing.
//
// # Thread Safety
//
// None. A pool, its handles and its queue belong to one goroutine.
package pool
