package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syftbench/internal/runner"
	"syftbench/internal/slurm"
	"syftbench/internal/solver"
	"syftbench/internal/taskmap"
)

var (
	runTask int
	runAll  bool
)

// runCmd executes one array task's shard. This is what the sbatch script
// invokes; run locally it takes --task or --all instead of the scheduler
// environment.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark shard assigned to one array task",
	Long: `Resolves a task index to its (solver, mode, shard) assignment, runs
that shard of the suite, and writes the task's result CSV.

The index comes from --task, or from SLURM_ARRAY_TASK_ID when running
inside a scheduler task. --all runs every task of the configured run
sequentially on the local machine.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runTask, "task", -1, "array task index (default: SLURM_ARRAY_TASK_ID)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every task sequentially")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(cfg, logger)

	if runAll {
		// Local full runs cover whichever builds are installed; a
		// machine with only one solver still benchmarks that one.
		available, err := solver.FromConfig(cfg, logger)
		if err != nil {
			return err
		}
		present := make(map[taskmap.Solver]bool, len(available))
		for _, s := range available {
			present[taskmap.Solver(s.Name())] = true
		}
		for task := 0; task < taskmap.TaskCount(cfg.Suite.Shards); task++ {
			a, err := taskmap.Resolve(task, cfg.Suite.Shards)
			if err != nil {
				return err
			}
			if !present[a.Solver] {
				logger.Warn("skipping task, solver binary not installed",
					zap.String("assignment", a.String()))
				continue
			}
			if err := runOne(ctx, r, cfg.Suite.Shards, task); err != nil {
				return err
			}
		}
		return nil
	}

	task := runTask
	if task < 0 {
		task, err = slurm.TaskFromEnv()
		if err != nil {
			return err
		}
	}
	return runOne(ctx, r, cfg.Suite.Shards, task)
}

func runOne(ctx context.Context, r *runner.Runner, shards, task int) error {
	a, err := taskmap.Resolve(task, shards)
	if err != nil {
		return err
	}
	logger.Info("resolved assignment", zap.String("assignment", a.String()))

	sum, err := r.ExecuteAssignment(ctx, a)
	if err != nil {
		return fmt.Errorf("task %d failed: %w", task, err)
	}
	sum.Print(os.Stdout, fmt.Sprintf("%s/%s shard %d", a.Solver, a.Mode, a.Shard))
	return nil
}
