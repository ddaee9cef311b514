package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

func newProfileCmd() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run the simulation under pprof",
		Long: `Run the entity simulation with CPU profiling enabled and write the
requested profiles to the output directory. Accepts every simulate flag.

Examples:
  genpool profile --types cpu --ticks 100000
  genpool profile --types all --output ./profiles`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			types, err := parseProfileTypes(v.GetString("types"))
			if err != nil {
				return err
			}
			outputDir := v.GetString("output")
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			status := cmd.ErrOrStderr()
			if slices.Contains(types, "cpu") {
				path := filepath.Join(outputDir, "cpu.prof")
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				defer f.Close()

				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				fmt.Fprintf(status, "CPU profiling enabled, writing to: %s\n", path)
			}

			runErr := runSimulation(cmd, cfg)
			if slices.Contains(types, "cpu") {
				pprof.StopCPUProfile()
			}

			for _, name := range types {
				if name == "cpu" {
					continue
				}
				path := filepath.Join(outputDir, name+".prof")
				if err := writeProfile(name, path); err != nil {
					return err
				}
				fmt.Fprintf(status, "%s profile written to: %s\n", name, path)
			}
			return runErr
		},
	}

	addSimulationFlags(cmd, v)
	cmd.Flags().String("output", "./profiles", "Output directory for profiles")
	cmd.Flags().String("types", "cpu,memory", "Profile types (cpu,memory,allocs,goroutine,all)")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

// writeProfile writes the named runtime profile to path. "memory" is the heap
// profile taken after a GC.
func writeProfile(name, path string) error {
	lookup := name
	if name == "memory" {
		lookup = "heap"
		runtime.GC()
	}
	profile := pprof.Lookup(lookup)
	if profile == nil {
		return poolerrors.New(poolerrors.ErrorTypeValidation, "unknown profile").
			WithDetail("profile", name)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", name, err)
	}
	defer f.Close()

	if err := profile.WriteTo(f, 0); err != nil {
		return fmt.Errorf("failed to write %s profile: %w", name, err)
	}
	return nil
}

// parseProfileTypes parses a comma separated list of profile types.
func parseProfileTypes(typesStr string) ([]string, error) {
	if typesStr == "all" {
		return []string{"cpu", "memory", "allocs", "goroutine"}, nil
	}

	parts := strings.Split(typesStr, ",")
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "mem":
			part = "memory"
		case "cpu", "memory", "allocs", "goroutine":
		default:
			return nil, poolerrors.New(poolerrors.ErrorTypeValidation, "unknown profile type").
				WithDetail("type", part)
		}
		if !slices.Contains(types, part) {
			types = append(types, part)
		}
	}
	return types, nil
}
