// Package metrics provides Prometheus instrumentation for genpool.
//
// # Overview
//
// A PoolCollector records what a pool does between and during
// synchronizations:
//   - allocations, split into fresh slots and reused slots
//   - reference-count events applied by sync, by kind (new/drop)
//   - invalidations
//   - live items, slot table size and queued events as gauges
//   - sync duration as a histogram
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewPoolCollector("entities", reg)
//	p := pool.New[Entity](pool.WithMetrics(collector))
//
// Every method is safe to call on a nil *PoolCollector, so instrumented code
// does not need to branch on whether metrics are enabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "genpool"

// Event kinds used as the "kind" label of the events counter.
const (
	EventNew  = "new"
	EventDrop = "drop"
)

// PoolCollector wraps the Prometheus metrics for one pool. The pool name is
// attached to every series as the "pool" const label.
type PoolCollector struct {
	name          string                // Pool name for labeling
	registry      prometheus.Registerer // Where the metrics live
	allocations   *prometheus.CounterVec
	invalidations prometheus.Counter
	events        *prometheus.CounterVec
	syncs         prometheus.Counter
	live          prometheus.Gauge
	slots         prometheus.Gauge
	pending       prometheus.Gauge
	syncDuration  prometheus.Histogram
	mu            sync.Mutex // Protects lastSync
	lastSync      time.Duration
}

// NewPoolCollector creates and registers the metrics for a pool. A nil
// registerer gets a private registry, which keeps repeated construction in
// tests from colliding on the default one.
//
// Example:
//
//	collector := metrics.NewPoolCollector("nodes", prometheus.DefaultRegisterer)
//	defer collector.Unregister()
func NewPoolCollector(name string, reg prometheus.Registerer) *PoolCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	labels := prometheus.Labels{"pool": name}
	factory := promauto.With(reg)

	return &PoolCollector{
		name:     name,
		registry: reg,
		allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "allocations_total",
			Help:        "Items added to the pool, by whether a free slot was reused",
			ConstLabels: labels,
		}, []string{"slot"}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "invalidations_total",
			Help:        "Items cleared after their reference count reached zero",
			ConstLabels: labels,
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "refcount_events_total",
			Help:        "Reference-count events applied during synchronization",
			ConstLabels: labels,
		}, []string{"kind"}),
		syncs: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "syncs_total",
			Help:        "Synchronization passes run",
			ConstLabels: labels,
		}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "live_items",
			Help:        "Items currently present in the pool",
			ConstLabels: labels,
		}),
		slots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "slots",
			Help:        "Length of the slot table",
			ConstLabels: labels,
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pending_events",
			Help:        "Reference-count events queued but not yet synchronized",
			ConstLabels: labels,
		}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "sync_duration_nanoseconds",
			Help:        "Time spent draining the event queue",
			ConstLabels: labels,
			Buckets: []float64{
				100,    // 100ns - empty queue
				1000,   // 1μs
				10000,  // 10μs
				100000, // 100μs
				1e6,    // 1ms
				1e7,    // 10ms - very large backlogs
			},
		}),
	}
}

// Name returns the pool name used as const label.
func (c *PoolCollector) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// ObserveAllocation counts one Add.
func (c *PoolCollector) ObserveAllocation(reused bool) {
	if c == nil {
		return
	}
	if reused {
		c.allocations.WithLabelValues("reused").Inc()
		return
	}
	c.allocations.WithLabelValues("appended").Inc()
}

// ObserveInvalidation counts one cleared item.
func (c *PoolCollector) ObserveInvalidation() {
	if c == nil {
		return
	}
	c.invalidations.Inc()
}

// ObserveSync records one synchronization pass.
func (c *PoolCollector) ObserveSync(d time.Duration, added, dropped int) {
	if c == nil {
		return
	}
	c.syncs.Inc()
	c.events.WithLabelValues(EventNew).Add(float64(added))
	c.events.WithLabelValues(EventDrop).Add(float64(dropped))
	c.syncDuration.Observe(float64(d.Nanoseconds()))

	c.mu.Lock()
	c.lastSync = d
	c.mu.Unlock()
}

// SetOccupancy updates the live, slot and pending gauges.
func (c *PoolCollector) SetOccupancy(live, slots, pending int) {
	if c == nil {
		return
	}
	c.live.Set(float64(live))
	c.slots.Set(float64(slots))
	c.pending.Set(float64(pending))
}

// LastSync returns the duration of the most recent sync.
func (c *PoolCollector) LastSync() time.Duration {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// Unregister removes every metric of this collector from its registerer.
func (c *PoolCollector) Unregister() {
	if c == nil {
		return
	}
	for _, col := range []prometheus.Collector{
		c.allocations, c.invalidations, c.events, c.syncs,
		c.live, c.slots, c.pending, c.syncDuration,
	} {
		c.registry.Unregister(col)
	}
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("sync")
//	stats := p.Sync()
//	collector.ObserveSync(timer.Stop(), stats.Added, stats.Dropped)
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed duration since creation. It can be called
// repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Name returns the timer's name.
func (t *Timer) Name() string {
	return t.name
}
