// Package main implements the syftbench CLI, the SLURM benchmark harness
// for comparing Syft LTLf synthesis builds.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syftbench/internal/config"
	"syftbench/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "syftbench",
	Short: "syftbench - sharded Syft benchmark harness for SLURM",
	Long: `syftbench runs an LTLf benchmark suite against multiple Syft builds
as one SLURM job array.

Every array task resolves its own (solver, mode, shard) assignment from
its task index, runs its share of the suite, and writes a result file no
other task touches. A single submission covers the full cross product of
builds, solving modes, and shards.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger. Logging preferences come from the config
		// file; a broken config still gets a default logger so the
		// command itself can report the load error.
		lc := config.Default().Logging
		if cfg, err := config.Load(configPath); err == nil {
			lc = cfg.Logging
		}
		var err error
		logger, err = logging.New(lc, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the configuration named by --config and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
