package config

import (
	"github.com/ajitpratap0/genpool/pkg/logger"
	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// Config is the root configuration structure.
type Config struct {
	// Pool settings for the entity pool
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Simulation drives the tick loop
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`

	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Metrics configures the Prometheus collector
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configures the OpenTelemetry tracer
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// PoolConfig contains slot table settings.
type PoolConfig struct {
	// Name labels log lines and metrics
	Name     string `yaml:"name" json:"name"`
	// Capacity reserves slot table entries up front
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// SimulationConfig contains the tick loop settings.
// Ratios are probabilities in [0, 1] applied per entity per tick.
type SimulationConfig struct {
	// Ticks is the number of ticks to run
	Ticks         int     `yaml:"ticks" json:"ticks"`
	// SpawnPerTick is the number of entities created each tick
	SpawnPerTick  int     `yaml:"spawn_per_tick" json:"spawn_per_tick"`
	// ReleaseRatio is the chance that a held handle is released
	ReleaseRatio  float64 `yaml:"release_ratio" json:"release_ratio"`
	// RetargetRatio is the chance that an entity picks a new target
	RetargetRatio float64 `yaml:"retarget_ratio" json:"retarget_ratio"`
	// CloneRatio is the chance that an entity takes ownership of its target
	CloneRatio    float64 `yaml:"clone_ratio" json:"clone_ratio"`
	// Damage dealt to a reachable target each tick
	Damage        int     `yaml:"damage" json:"damage"`
	// Seed makes a run reproducible
	Seed          uint64  `yaml:"seed" json:"seed"`
	// Report selects the report encoding (text, json)
	Report        string  `yaml:"report" json:"report"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled attaches a PoolCollector to the pool
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs a tracer provider that prints spans to stdout
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	// ServiceName is reported as the service.name resource attribute
	ServiceName string  `yaml:"service_name" json:"service_name"`
	// SampleRate controls trace sampling (0.0-1.0)
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// Default returns a Config populated with values suitable for a short local
// run.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			Name:     "entities",
			Capacity: 256,
		},
		Simulation: SimulationConfig{
			Ticks:         100,
			SpawnPerTick:  8,
			ReleaseRatio:  0.2,
			RetargetRatio: 0.3,
			CloneRatio:    0.05,
			Damage:        3,
			Seed:          1,
			Report:        "text",
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "genpool",
			SampleRate:  1.0,
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Pool.Name == "" {
		return invalid("pool.name is required")
	}
	if c.Pool.Capacity < 0 {
		return invalid("pool.capacity cannot be negative")
	}
	if c.Simulation.Ticks < 0 {
		return invalid("simulation.ticks cannot be negative")
	}
	if c.Simulation.SpawnPerTick < 0 {
		return invalid("simulation.spawn_per_tick cannot be negative")
	}
	if c.Simulation.Damage < 0 {
		return invalid("simulation.damage cannot be negative")
	}
	for name, r := range map[string]float64{
		"release_ratio":  c.Simulation.ReleaseRatio,
		"retarget_ratio": c.Simulation.RetargetRatio,
		"clone_ratio":    c.Simulation.CloneRatio,
	} {
		if r < 0 || r > 1 {
			return poolerrors.Newf(poolerrors.ErrorTypeValidation, "simulation.%s must be within [0, 1]", name).
				WithDetail("value", r)
		}
	}
	switch c.Simulation.Report {
	case "text", "json":
	default:
		return poolerrors.New(poolerrors.ErrorTypeValidation, "simulation.report must be text or json").
			WithDetail("value", c.Simulation.Report)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return invalid("tracing.sample_rate must be within [0, 1]")
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return invalid("tracing.service_name is required when tracing is enabled")
	}
	return nil
}

func invalid(msg string) error {
	return poolerrors.New(poolerrors.ErrorTypeValidation, msg)
}
