package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TickMetrics are the otel instruments a tick-driven host reports.
type TickMetrics struct {
	ticks        metric.Int64Counter
	spawned      metric.Int64Counter
	released     metric.Int64Counter
	staleLookups metric.Int64Counter
	live         metric.Int64Gauge
	tickDuration metric.Float64Histogram

	attrs metric.MeasurementOption
}

// TickSample is what one tick did.
type TickSample struct {
	Spawned      int
	Released     int
	StaleLookups int
	Live         int
	Seconds      float64
}

// NewTickMetrics creates the instruments on meter. pool labels every
// measurement.
func NewTickMetrics(meter metric.Meter, pool string) (*TickMetrics, error) {
	var (
		tm  = &TickMetrics{attrs: metric.WithAttributes(attribute.String("pool", pool))}
		err error
	)

	if tm.ticks, err = meter.Int64Counter("genpool.ticks",
		metric.WithDescription("Ticks completed")); err != nil {
		return nil, fmt.Errorf("failed to create tick counter: %w", err)
	}
	if tm.spawned, err = meter.Int64Counter("genpool.entities.spawned",
		metric.WithDescription("Entities allocated")); err != nil {
		return nil, fmt.Errorf("failed to create spawn counter: %w", err)
	}
	if tm.released, err = meter.Int64Counter("genpool.handles.released",
		metric.WithDescription("Strong handles released by the host")); err != nil {
		return nil, fmt.Errorf("failed to create release counter: %w", err)
	}
	if tm.staleLookups, err = meter.Int64Counter("genpool.lookups.stale",
		metric.WithDescription("Weak lookups that no longer resolved")); err != nil {
		return nil, fmt.Errorf("failed to create stale lookup counter: %w", err)
	}
	if tm.live, err = meter.Int64Gauge("genpool.entities.live",
		metric.WithDescription("Entities present after the tick's sync")); err != nil {
		return nil, fmt.Errorf("failed to create live gauge: %w", err)
	}
	if tm.tickDuration, err = meter.Float64Histogram("genpool.tick.duration",
		metric.WithDescription("Wall time of one tick"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create tick histogram: %w", err)
	}

	return tm, nil
}

// Record adds one tick's sample.
func (tm *TickMetrics) Record(ctx context.Context, s TickSample) {
	tm.ticks.Add(ctx, 1, tm.attrs)
	tm.spawned.Add(ctx, int64(s.Spawned), tm.attrs)
	tm.released.Add(ctx, int64(s.Released), tm.attrs)
	tm.staleLookups.Add(ctx, int64(s.StaleLookups), tm.attrs)
	tm.live.Record(ctx, int64(s.Live), tm.attrs)
	tm.tickDuration.Record(ctx, s.Seconds, tm.attrs)
}
