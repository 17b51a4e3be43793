// Gray Logic Profiler - Device Evidence Resolution Engine
//
// This is the entry point for the profiler tooling. It resolves Tuya and
// Zigbee device identities into capability profiles from the evidence
// collected about them, and serves those profiles to the driver runtime.
//
// Commands:
//   - batch: resolve every known identity and store/publish the profiles
//   - resolve: resolve one identity and print the profile
//   - ingest: normalise evidence documents into the store
//   - rules: validate or compile a fingerprint rule table
//   - serve: run the read API and MQTT evidence ingestion
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/gray-logic-profiler/migrations"

	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of tests.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "graylogic-profiler",
		Short:         "Resolve device evidence into capability profiles",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default $GRAYLOGIC_CONFIG or "+defaultConfigPath+")")

	loadConfig := func() (*config.Config, error) {
		path := getConfigPath(configPath)
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newBatchCmd(loadConfig),
		newResolveCmd(loadConfig),
		newIngestCmd(loadConfig),
		newRulesCmd(),
		newServeCmd(loadConfig),
	)
	return root
}

// getConfigPath returns the flag value, then GRAYLOGIC_CONFIG, then the default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
