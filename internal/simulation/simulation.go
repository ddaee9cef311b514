// Package simulation drives a generational pool with a deterministic,
// game-like workload. Entities are spawned, target each other through weak
// handles, take ownership of the entities they target, and are released at
// random; reference counts are synchronized once per tick.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ajitpratap0/genpool/pkg/config"
	"github.com/ajitpratap0/genpool/pkg/logger"
	"github.com/ajitpratap0/genpool/pkg/metrics"
	"github.com/ajitpratap0/genpool/pkg/observability"
	"github.com/ajitpratap0/genpool/pkg/pool"
)

const startingHP = 20

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// WithRegistry registers the pool collector on reg instead of a private
// registry. It has no effect when metrics are disabled.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(s *Simulator) {
		s.registry = reg
	}
}

// WithTelemetry reports one span and one set of otel measurements per tick.
func WithTelemetry(p *observability.Provider) Option {
	return func(s *Simulator) {
		s.telemetry = p
	}
}

// Simulator owns the entity pool and the handles the world holds.
type Simulator struct {
	cfg  config.SimulationConfig
	pool *pool.Pool[Entity]
	rng  *rand.Rand

	// held are the world's own strong handles, one per spawned entity until
	// released
	held   []*pool.Handle[Entity]
	nextID uint64
	report Report

	logger    *zap.Logger
	registry  prometheus.Registerer
	collector *metrics.PoolCollector
	telemetry *observability.Provider
	tracer    trace.Tracer
	tick      *observability.TickMetrics
}

// New creates a Simulator from cfg. cfg must be valid.
func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		cfg: cfg.Simulation,
		rng: rand.New(rand.NewPCG(cfg.Simulation.Seed, cfg.Simulation.Seed^0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	poolOpts := []pool.Option{
		pool.WithName(cfg.Pool.Name),
		pool.WithCapacity(cfg.Pool.Capacity),
		pool.WithLogger(s.logger),
	}
	s.logger = s.logger.With(zap.String("pool", cfg.Pool.Name))

	if cfg.Metrics.Enabled {
		s.collector = metrics.NewPoolCollector(cfg.Pool.Name, s.registry)
		poolOpts = append(poolOpts, pool.WithMetrics(s.collector))
	}
	s.pool = pool.New[Entity](poolOpts...)

	s.tracer = noop.NewTracerProvider().Tracer("simulation")
	if s.telemetry != nil {
		s.tracer = s.telemetry.Tracer()
		tm, err := observability.NewTickMetrics(s.telemetry.Meter(), cfg.Pool.Name)
		if err != nil {
			return nil, err
		}
		s.tick = tm
	}

	return s, nil
}

// Pool exposes the entity pool.
func (s *Simulator) Pool() *pool.Pool[Entity] {
	return s.pool
}

// Collector returns the Prometheus collector, or nil when metrics are off.
func (s *Simulator) Collector() *metrics.PoolCollector {
	return s.collector
}

// Held returns the number of strong handles the world holds.
func (s *Simulator) Held() int {
	return len(s.held)
}

// Run executes cfg.Simulation.Ticks ticks, then releases every handle the
// world holds and reports what is left. It stops early when ctx is done and
// returns the partial report with ctx's error.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	s, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	runErr := s.RunTicks(ctx, cfg.Simulation.Ticks)
	r := s.Finish()
	return r, runErr
}

// RunTicks runs n ticks, checking ctx between them.
func (s *Simulator) RunTicks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			s.report.Interrupted = true
			s.logger.Warn("simulation interrupted",
				zap.Int("tick", s.report.Ticks),
				zap.Error(err))
			return err
		}
		s.Tick(ctx)
	}
	return nil
}

// Tick advances the world by one step.
func (s *Simulator) Tick(ctx context.Context) {
	tick := s.report.Ticks
	ctx, span := observability.StartSpan(ctx, s.tracer, "simulation.tick")
	defer span.End()
	log := s.logger.With(zap.Int("tick", tick))

	spawned := s.spawn()
	s.retarget()
	owned := s.adopt()
	stale, kills := s.attack()
	released := s.release()

	stats := s.pool.SyncRefCounts(func(p *pool.Pool[Entity], slot pool.Slot) {
		if e, ok := p.GetBySlot(slot); ok {
			log.Debug("entity despawned",
				zap.Uint64("id", e.ID),
				zap.String("name", e.Name),
				zap.Uint32("slot", uint32(slot)))
		}
		p.InvalidateUnreferenced(slot)
	})

	s.report.Ticks++
	s.report.Spawned += spawned
	s.report.Owned += owned
	s.report.Released += released
	s.report.StaleLookups += stale
	s.report.Kills += kills
	s.report.Invalidated += stats.Invalidated

	if stats.Invalidated > 0 {
		span.AddEvent("entities despawned", attribute.Int("count", stats.Invalidated))
	}
	span.SetAttribute("tick", tick)
	span.SetAttribute("spawned", spawned)
	span.SetAttribute("released", released)
	span.SetAttribute("invalidated", stats.Invalidated)
	span.SetAttribute("live", s.pool.Len())

	if s.tick != nil {
		s.tick.Record(ctx, observability.TickSample{
			Spawned:      spawned,
			Released:     released,
			StaleLookups: stale,
			Live:         s.pool.Len(),
			Seconds:      span.Duration().Seconds(),
		})
	}

	log.Debug("tick complete",
		zap.Int("spawned", spawned),
		zap.Int("released", released),
		zap.Int("invalidated", stats.Invalidated),
		zap.Int("live", s.pool.Len()),
		zap.Int("slots", s.pool.NumSlots()))
}

func (s *Simulator) spawn() int {
	for i := 0; i < s.cfg.SpawnPerTick; i++ {
		s.nextID++
		h := s.pool.Add(Entity{
			ID:   s.nextID,
			Name: fmt.Sprintf("entity-%d", s.nextID),
			HP:   startingHP,
		})
		s.held = append(s.held, h)
	}
	return s.cfg.SpawnPerTick
}

// retarget points some entities at a random entity the world still holds.
func (s *Simulator) retarget() {
	if len(s.held) == 0 {
		return
	}
	for _, e := range s.pool.All() {
		if s.rng.Float64() < s.cfg.RetargetRatio {
			e.Target = s.held[s.rng.IntN(len(s.held))].Weak()
		}
	}
}

// adopt lets some entities take ownership of their target. Only targets with
// a larger ID qualify.
func (s *Simulator) adopt() int {
	n := 0
	for _, e := range s.pool.All() {
		if e.Target.IsZero() || e.owns(e.Target) || s.rng.Float64() >= s.cfg.CloneRatio {
			continue
		}
		t, ok := s.pool.Get(e.Target)
		if !ok || t.ID <= e.ID {
			continue
		}
		if h, ok := s.pool.Upgrade(e.Target); ok {
			e.Owned = append(e.Owned, h)
			n++
		}
	}
	return n
}

// attack damages every reachable target and forgets stale ones.
func (s *Simulator) attack() (stale, kills int) {
	for _, e := range s.pool.All() {
		if e.Target.IsZero() {
			continue
		}
		t, ok := s.pool.Get(e.Target)
		if !ok {
			e.Target = pool.WeakHandle[Entity]{}
			stale++
			continue
		}
		if !t.Alive() {
			continue
		}
		t.HP -= s.cfg.Damage
		if !t.Alive() {
			kills++
		}
	}
	return stale, kills
}

// release drops the world's handle to dead entities and to a random share
// of the living.
func (s *Simulator) release() int {
	kept := s.held[:0]
	n := 0
	for _, h := range s.held {
		if !s.pool.At(h).Alive() || s.rng.Float64() < s.cfg.ReleaseRatio {
			h.Release()
			n++
			continue
		}
		kept = append(kept, h)
	}
	clear(s.held[len(kept):])
	s.held = kept
	return n
}

// Finish releases every handle the world holds, synchronizes, and returns
// the report. Entities still present afterwards are counted as leaked.
func (s *Simulator) Finish() *Report {
	// live and slot counts describe the world as the last tick left it
	s.report.Live = s.pool.Len()
	s.report.Slots = s.pool.NumSlots()

	for _, h := range s.held {
		h.Release()
	}
	s.report.Released += len(s.held)
	s.held = nil
	stats := s.pool.Sync()
	s.report.Invalidated += stats.Invalidated

	ps := s.pool.Stats()
	s.report.Leaked = ps.Live
	s.report.EventsApplied = ps.EventsApplied
	s.report.Reuses = ps.Reuses
	s.report.MaxGeneration = uint32(ps.Generation)
	s.report.sampleProcess()

	s.logger.Info("simulation finished",
		zap.Int("ticks", s.report.Ticks),
		zap.Int("spawned", s.report.Spawned),
		zap.Int("invalidated", s.report.Invalidated),
		zap.Int("leaked", s.report.Leaked),
		zap.Uint32("max_generation", s.report.MaxGeneration))

	r := s.report
	return &r
}

// Close releases the pool and unregisters its collector.
func (s *Simulator) Close() {
	s.pool.Close()
	s.collector.Unregister()
}
