package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syftbench/internal/executor"
	"syftbench/internal/slurm"
	"syftbench/internal/taskmap"
)

var (
	submitDryRun bool
	submitBinary string
)

// submitCmd renders the sbatch script for the whole run and hands it to
// the scheduler.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the benchmark run as one SLURM job array",
	Long: `Renders an sbatch script covering every (solver, mode, shard)
combination of the configured run and submits it. One submission
replaces the per-combination script variants: each array task resolves
its own assignment from its index.

--dry-run prints the script instead of submitting it.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "print the sbatch script without submitting")
	submitCmd.Flags().StringVar(&submitBinary, "binary", "", "syftbench executable path on the cluster (default: this binary)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	binary := submitBinary
	if binary == "" {
		binary, err = os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate own executable: %w", err)
		}
	}

	script, err := slurm.Script(cfg, configPath, binary)
	if err != nil {
		return err
	}

	if submitDryRun {
		fmt.Print(script)
		return nil
	}

	run := executor.NewRunner(executor.DefaultConfig(), logger)
	jobID, err := slurm.Submit(context.Background(), run, script)
	if err != nil {
		return err
	}
	logger.Info("submitted job array",
		zap.Int("job_id", jobID),
		zap.Int("tasks", taskmap.TaskCount(cfg.Suite.Shards)))
	fmt.Printf("Submitted batch job %d (%d tasks)\n", jobID, taskmap.TaskCount(cfg.Suite.Shards))
	return nil
}
