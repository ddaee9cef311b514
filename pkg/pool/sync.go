package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/genpool/pkg/metrics"
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// SyncRefCounts drains the event queue in the order events were sent and
// applies them to the slot table. Whenever a "drop" brings a count to
// exactly zero, onZero is called with the slot; the item is still present at
// that point and it is up to the callback to clear it, normally with
// InvalidateUnreferenced. A nil onZero leaves every item in place.
//
// The queue is drained until it reports empty, so events sent while the sync
// runs (by onZero, or by a Dropper releasing handles it owned) are applied in
// the same call. Events sent after SyncRefCounts returns wait for the next
// sync.
//
// SyncRefCounts must not be called from inside onZero.
func (p *Pool[T]) SyncRefCounts(onZero func(p *Pool[T], slot Slot)) SyncStats {
	p.checkOpen("sync")
	if p.syncing {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "sync called while syncing").
			WithDetail("pool", p.name))
	}
	p.syncing = true
	defer func() { p.syncing = false }()

	timer := metrics.NewTimer("sync")
	invalidatedBefore := p.stats.Invalidations

	var stats SyncStats
	for {
		msg, ok := p.rx.Recv()
		if !ok {
			break
		}

		e := p.eventEntry(msg)
		switch msg.kind {
		case msgNew:
			if e.refs == maxRefCount {
				panic(poolerrors.New(poolerrors.ErrorTypeOverflow, "reference count exhausted").
					WithDetail("slot", msg.slot))
			}
			e.refs++
			stats.Added++
		case msgDrop:
			if e.refs == 0 {
				panic(poolerrors.New(poolerrors.ErrorTypeInternal, "reference count underflow").
					WithDetail("slot", msg.slot).
					WithDetail("generation", msg.gen))
			}
			e.refs--
			stats.Dropped++
			// e may dangle once onZero runs; do not touch it afterwards
			if e.refs == 0 && onZero != nil {
				onZero(p, msg.slot)
			}
		}
	}

	stats.Invalidated = int(p.stats.Invalidations - invalidatedBefore)
	p.stats.Syncs++
	p.stats.EventsApplied += uint64(stats.Events())

	elapsed := timer.Stop()
	p.metrics.ObserveSync(elapsed, stats.Added, stats.Dropped)
	p.metrics.SetOccupancy(p.stats.Live, len(p.entries), p.rx.Len())

	if stats.Events() > 0 {
		p.logger.Debug("reference counts synchronized",
			zap.Int("added", stats.Added),
			zap.Int("dropped", stats.Dropped),
			zap.Int("invalidated", stats.Invalidated),
			zap.Int("live", p.stats.Live),
			zap.Duration("elapsed", elapsed))
	}

	return stats
}

// Sync applies every queued event and clears each item whose count reaches
// zero. Calling it twice with no handle activity in between is a no-op.
func (p *Pool[T]) Sync() SyncStats {
	return p.SyncRefCounts(func(p *Pool[T], slot Slot) {
		p.InvalidateUnreferenced(slot)
	})
}

// InvalidateUnreferenced clears the item in slot. The slot's applied count
// must be zero. It returns false if the slot was already empty.
//
// If the item implements Dropper, Drop is called after the slot is cleared.
func (p *Pool[T]) InvalidateUnreferenced(slot Slot) bool {
	p.checkOpen("invalidate")
	if slot.Index() >= len(p.entries) {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "invalidate of slot out of range").
			WithDetail("slot", slot).
			WithDetail("slots", len(p.entries)))
	}

	e := &p.entries[slot]
	if e.refs != 0 {
		panic(poolerrors.New(poolerrors.ErrorTypeContract, "invalidate of referenced slot").
			WithDetail("slot", slot).
			WithDetail("refs", e.refs))
	}
	if !e.present {
		return false
	}

	item := e.item
	var zero T
	e.item = zero
	e.present = false

	p.stats.Live--
	p.stats.Invalidations++
	p.metrics.ObserveInvalidation()
	p.logger.Debug("slot invalidated",
		zap.Uint32("slot", uint32(slot)),
		zap.Uint32("generation", uint32(e.gen)))

	dropItem(item)
	return true
}

// dropItem runs Dropper on a cleared item, whether the method has a value or
// pointer receiver.
func dropItem[T any](item T) {
	if d, ok := any(item).(Dropper); ok {
		d.Drop()
		return
	}
	if d, ok := any(&item).(Dropper); ok {
		d.Drop()
	}
}

// eventEntry resolves the entry an event refers to. Any mismatch means the
// bookkeeping is already corrupt.
func (p *Pool[T]) eventEntry(msg message) *entry[T] {
	if msg.slot.Index() >= len(p.entries) {
		panic(poolerrors.New(poolerrors.ErrorTypeInternal, "event for slot out of range").
			WithDetail("slot", msg.slot).
			WithDetail("slots", len(p.entries)))
	}
	e := &p.entries[msg.slot]
	if e.gen != msg.gen {
		panic(poolerrors.New(poolerrors.ErrorTypeInternal, "event for stale generation").
			WithDetail("slot", msg.slot).
			WithDetail("generation", msg.gen).
			WithDetail("current", e.gen))
	}
	return e
}
