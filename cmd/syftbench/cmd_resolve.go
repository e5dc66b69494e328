package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"syftbench/internal/taskmap"
)

var resolveShards int

// resolveCmd shows the assignment for one or all task indices without
// running anything. Useful when inspecting a live array with squeue.
var resolveCmd = &cobra.Command{
	Use:   "resolve [task-index]",
	Short: "Show the (solver, mode, shard) assignment for a task index",
	Long: `Maps an array task index to its solver, mode, shard, and output
file. Without an index, prints the full table for the run.

Example:
  syftbench resolve 42 --shards 16`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().IntVar(&resolveShards, "shards", 0, "shards per combination (default from config)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	shards := resolveShards
	if shards == 0 {
		shards = cfg.Suite.Shards
	}
	if shards < 1 {
		return fmt.Errorf("shards per combination must be positive, got %d", shards)
	}

	if len(args) == 1 {
		var task int
		if _, err := fmt.Sscanf(args[0], "%d", &task); err != nil {
			return fmt.Errorf("invalid task index %q", args[0])
		}
		a, err := taskmap.Resolve(task, shards)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n  output: %s\n", a, a.OutputPath(cfg.Results.Dir))
		return nil
	}

	fmt.Printf("array %s (%d tasks, %d shards per combination)\n",
		taskmap.ArrayRange(shards), taskmap.TaskCount(shards), shards)
	for task := 0; task < taskmap.TaskCount(shards); task++ {
		a, err := taskmap.Resolve(task, shards)
		if err != nil {
			return err
		}
		fmt.Printf("  %s -> %s\n", a, a.OutputPath(cfg.Results.Dir))
	}
	return nil
}
