package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/genpool/pkg/logger"
	"github.com/ajitpratap0/genpool/pkg/metrics"
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
	"github.com/ajitpratap0/genpool/pkg/smpsc"
)

// Pool is a dynamic array of reference-counted items. See the package
// documentation for the lifecycle.
type Pool[T any] struct {
	// entries is only ever appended to; slot indices are permanent
	entries []entry[T]
	rx      *smpsc.Receiver[message]
	// tx is cloned into every Handle
	tx *smpsc.Sender[message]

	lastGen Generation
	stats   Stats
	syncing bool
	closed  bool

	name    string
	logger  *zap.Logger
	metrics *metrics.PoolCollector
}

type options struct {
	capacity int
	name     string
	logger   *zap.Logger
	metrics  *metrics.PoolCollector
}

// Option configures a Pool.
type Option func(*options)

// WithCapacity reserves room for n entries up front.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithName names the pool in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. The default is the global logger from package
// logger, which is silent until the host initialises it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(c *metrics.PoolCollector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// New creates an empty pool.
func New[T any](opts ...Option) *Pool[T] {
	o := options{name: "pool"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.name == "pool" && o.metrics != nil {
		o.name = o.metrics.Name()
	}

	tx, rx := smpsc.Unbounded[message]()
	return &Pool[T]{
		entries: make([]entry[T], 0, o.capacity),
		rx:      rx,
		tx:      tx,
		name:    o.name,
		logger:  o.logger.With(zap.String("pool", o.name)),
		metrics: o.metrics,
	}
}

// Name returns the pool's name.
func (p *Pool[T]) Name() string {
	return p.name
}

// FindFreeSlot returns the lowest slot whose item is absent.
//
// TODO: keep an embedded free list once linear scans show up in profiles.
func (p *Pool[T]) FindFreeSlot() (Slot, bool) {
	p.checkOpen("find free slot")
	for i := range p.entries {
		if !p.entries[i].present {
			return Slot(i), true
		}
	}
	return 0, false
}

// Add stores item and returns the first strong handle to it. The handle is
// counted immediately; no event is queued.
func (p *Pool[T]) Add(item T) *Handle[T] {
	p.checkOpen("add")

	gen := p.nextGeneration()
	e := entry[T]{
		item:    item,
		present: true,
		gen:     gen,
		// count the handle returned below
		refs: 1,
	}

	slot, reused := p.FindFreeSlot()
	if reused {
		p.entries[slot] = e
		p.stats.Reuses++
		p.logger.Debug("slot reused",
			zap.Uint32("slot", uint32(slot)),
			zap.Uint32("generation", uint32(gen)))
	} else {
		if uint64(len(p.entries)) >= uint64(InvalidSlot) {
			panic(poolerrors.New(poolerrors.ErrorTypeOverflow, "slot table exhausted").
				WithDetail("slots", len(p.entries)))
		}
		slot = Slot(len(p.entries))
		grew := len(p.entries) == cap(p.entries)
		p.entries = append(p.entries, e)
		if grew {
			p.logger.Debug("slot table grown",
				zap.Int("slots", len(p.entries)),
				zap.Int("capacity", cap(p.entries)))
		}
	}

	p.stats.Allocations++
	p.stats.Live++
	p.metrics.ObserveAllocation(reused)

	return newHandle[T](slot, gen, p.tx)
}

// nextGeneration draws from the pool-wide counter.
func (p *Pool[T]) nextGeneration() Generation {
	if p.lastGen == maxGeneration {
		panic(poolerrors.New(poolerrors.ErrorTypeOverflow, "generation counter exhausted").
			WithDetail("generation", p.lastGen))
	}
	p.lastGen++
	return p.lastGen
}

// Len returns the number of items present, including items whose count has
// reached zero but which have not been cleared yet.
func (p *Pool[T]) Len() int {
	return p.stats.Live
}

// NumSlots returns the length of the slot table.
func (p *Pool[T]) NumSlots() int {
	return len(p.entries)
}

// PendingEvents returns the number of queued, unapplied events.
func (p *Pool[T]) PendingEvents() int {
	return p.rx.Len()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	s := p.stats
	s.Slots = len(p.entries)
	s.Generation = p.lastGen
	return s
}

// Close releases the slot table and the queue. Handles that outlive the pool
// may still be released; their events are discarded.
//
// After Close only Name, Closed, Close, Len, NumSlots, PendingEvents and
// Stats remain usable. Every operation that reads or writes items or slots,
// including weak lookups and iteration, panics with a contract error.
func (p *Pool[T]) Close() {
	if p.closed {
		return
	}
	if n := p.rx.Close(); n > 0 {
		p.logger.Warn("pool closed with unsynchronized events", zap.Int("pending", n))
	}
	p.closed = true
	p.entries = nil
	p.stats.Live = 0
	p.metrics.SetOccupancy(0, 0, 0)
}

// Closed reports whether Close has been called.
func (p *Pool[T]) Closed() bool {
	return p.closed
}

func (p *Pool[T]) checkOpen(op string) {
	if p.closed {
		panic(poolerrors.Newf(poolerrors.ErrorTypeContract, "%s on closed pool", op).
			WithDetail("pool", p.name))
	}
}
