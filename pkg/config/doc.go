// Package config provides the configuration for genpool hosts.
// It defines a single Config structure covering the pool, the simulation
// driver and the ambient logging, metrics and tracing setup.
//
// The configuration is organized into logical sections:
//   - Pool: name and initial slot table capacity
//   - Simulation: tick count, spawn rate and handle churn ratios
//   - Logging: zap logger settings
//   - Metrics: Prometheus collector settings
//   - Tracing: OpenTelemetry tracer settings
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Simulation.Ticks = 500
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Loading
//
// LoadFile layers a YAML file over Default and validates the result:
//
//	cfg, err := config.LoadFile("genpool.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load decodes into any structure, for hosts that embed Config in their own:
//
//	type HostConfig struct {
//		config.Config `yaml:",inline"`
//		Region        string `yaml:"region"`
//	}
//
// # Environment Variable Substitution
//
// Any ${VAR_NAME} in the file is replaced with the variable's value before
// parsing. Unset variables become empty strings:
//
//	pool:
//	  name: ${POOL_NAME}
//	simulation:
//	  seed: ${SEED}
//
// # Errors
//
// Read and parse failures are *poolerrors.Error values of type
// ErrorTypeConfig; Validate returns ErrorTypeValidation.
package config
