package pool

import (
	"math"
)

// Slot is a position in the slot table. It is stable for the pool's lifetime.
type Slot uint32

// InvalidSlot is never handed out by a pool. Collaborators use it as a nil
// link.
const InvalidSlot Slot = math.MaxUint32

// Index returns the slot as a table index.
func (s Slot) Index() int {
	return int(s)
}

// Valid reports whether s can refer to an entry.
func (s Slot) Valid() bool {
	return s != InvalidSlot
}

// Generation tags one occupant of a slot. Zero is never issued.
type Generation uint32

// RefCount counts strong handles.
type RefCount uint32

const (
	maxGeneration = Generation(math.MaxUint32)
	maxRefCount   = RefCount(math.MaxUint32)
)

// Dropper is implemented by items that hold resources of their own, such as
// handles into this or another pool. Drop is called once, right after the
// item has been cleared from its slot. Handles released inside Drop queue
// events like any other release, and a sync in progress drains them too.
type Dropper interface {
	Drop()
}

// SlotState describes an entry as of the last sync.
type SlotState uint8

const (
	// SlotVacant: no item, either never filled, cleared, or out of range
	SlotVacant SlotState = iota
	// SlotLive: item present with a nonzero applied count
	SlotLive
	// SlotUnreferenced: item present but its applied count is zero; only
	// reachable when a sync hook chose not to invalidate
	SlotUnreferenced
)

// String returns the state name.
func (s SlotState) String() string {
	switch s {
	case SlotVacant:
		return "vacant"
	case SlotLive:
		return "live"
	case SlotUnreferenced:
		return "unreferenced"
	default:
		return "unknown"
	}
}

type messageKind uint8

const (
	msgNew messageKind = iota + 1
	msgDrop
)

// message is a reference-count delta for one slot.
type message struct {
	kind messageKind
	slot Slot
	gen  Generation
}

type entry[T any] struct {
	item    T
	present bool
	gen     Generation // last occupant, kept after clearing to reject stale handles
	refs    RefCount
}

// SyncStats reports what one sync applied.
type SyncStats struct {
	Added       int // "new" events applied
	Dropped     int // "drop" events applied
	Invalidated int // items cleared during this sync
}

// Events returns the number of events applied.
func (s SyncStats) Events() int {
	return s.Added + s.Dropped
}

// Stats are cumulative pool counters.
type Stats struct {
	Slots         int        // length of the slot table
	Live          int        // items present
	Allocations   uint64     // Add calls
	Reuses        uint64     // Add calls that filled a free slot
	Invalidations uint64     // items cleared
	EventsApplied uint64     // queue events applied by sync
	Syncs         uint64     // sync passes
	Generation    Generation // last generation issued
}
