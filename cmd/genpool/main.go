package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/genpool/internal/simulation"
	"github.com/ajitpratap0/genpool/pkg/config"
	"github.com/ajitpratap0/genpool/pkg/logger"
	"github.com/ajitpratap0/genpool/pkg/observability"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "genpool",
		Short: "genpool - generational object pool",
		Long: `genpool exercises a generational-index object pool with a deterministic
entity simulation and reports slot reuse, reference-count traffic and leaks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "genpool v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newSimulateCmd())
	root.AddCommand(newProfileCmd())
	return root
}

func newSimulateCmd() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the entity simulation",
		Long: `Run the entity simulation against a generational pool and print a report.
Every flag can also be set through a GENPOOL_ environment variable, for
example GENPOOL_TICKS=500 or GENPOOL_RELEASE_RATIO=0.4.

Example:
  genpool simulate --config genpool.yaml --ticks 1000 --report json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runSimulation(cmd, cfg)
		},
	}
	addSimulationFlags(cmd, v)
	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GENPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// addSimulationFlags registers the flags shared by every command that runs
// a simulation and binds them to v.
func addSimulationFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to a YAML configuration file (optional)")
	flags.Int("ticks", 0, "Number of ticks to run")
	flags.Int("spawn", 0, "Entities spawned per tick")
	flags.Float64("release-ratio", 0, "Chance that the world releases a held entity each tick")
	flags.Uint64("seed", 0, "Random seed")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("report", "", "Report format (text, json)")
	flags.Bool("trace", false, "Print one OpenTelemetry span per tick to stderr")
	_ = v.BindPFlags(flags)
}

// loadConfig reads the config file, if any, and applies explicitly set flags
// and GENPOOL_ environment variables on top.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadFile(v.GetString("config"))
	if err != nil {
		return nil, err
	}

	if v.IsSet("ticks") {
		cfg.Simulation.Ticks = v.GetInt("ticks")
	}
	if v.IsSet("spawn") {
		cfg.Simulation.SpawnPerTick = v.GetInt("spawn")
	}
	if v.IsSet("release-ratio") {
		cfg.Simulation.ReleaseRatio = v.GetFloat64("release-ratio")
	}
	if v.IsSet("seed") {
		cfg.Simulation.Seed = v.GetUint64("seed")
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("report") {
		cfg.Simulation.Report = v.GetString("report")
	}
	if v.IsSet("trace") {
		cfg.Tracing.Enabled = v.GetBool("trace")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSimulation executes one run and writes its report to stdout. An
// interrupted run still prints the partial report.
func runSimulation(cmd *cobra.Command, cfg *config.Config) error {
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := fmt.Sprintf("%d-%d", cfg.Simulation.Seed, time.Now().UnixNano())
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := logger.WithContext(ctx).With(zap.String("component", "genpool-cli"))

	opts := []simulation.Option{simulation.WithLogger(log)}
	if cfg.Tracing.Enabled {
		ocfg := observability.DefaultConfig()
		ocfg.ServiceName = cfg.Tracing.ServiceName
		ocfg.ServiceVersion = version
		ocfg.TracingEnabled = true
		ocfg.SamplingRate = cfg.Tracing.SampleRate
		ocfg.Writer = cmd.ErrOrStderr()
		provider, err := observability.New(ctx, ocfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				log.Warn("failed to shut down telemetry", zap.Error(err))
			}
		}()
		opts = append(opts, simulation.WithTelemetry(provider))
	}

	log.Info("starting simulation",
		zap.String("pool", cfg.Pool.Name),
		zap.Int("ticks", cfg.Simulation.Ticks),
		zap.Int("spawn_per_tick", cfg.Simulation.SpawnPerTick),
		zap.Uint64("seed", cfg.Simulation.Seed))
	start := time.Now()

	report, runErr := simulation.Run(ctx, cfg, opts...)
	if report == nil {
		return runErr
	}

	log.Info("simulation completed",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("interrupted", report.Interrupted))

	if err := report.Encode(cmd.OutOrStdout(), cfg.Simulation.Report); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("simulation failed: %w", runErr)
	}
	return nil
}
