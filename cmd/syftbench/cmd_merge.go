package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"syftbench/internal/results"
	"syftbench/internal/taskmap"
)

var mergePartial bool

// mergeCmd aggregates shard CSVs into one file per (solver, mode)
// combination.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge shard result files into per-combination CSVs",
	Long: `Combines each combination's shard files into a single sorted CSV
named like an unsharded run's output.

By default every shard file must exist; --partial merges whatever is
there, for inspecting a run that is still in flight or lost tasks.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergePartial, "partial", false, "tolerate missing shard files")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := results.MergeOptions{Partial: mergePartial}
	for _, combo := range taskmap.Combinations {
		merged, err := results.MergeCombination(cfg.Results.Dir, combo, cfg.Suite.Shards, opts)
		if err != nil {
			return fmt.Errorf("failed to merge %s/%s: %w", combo.Solver, combo.Mode, err)
		}
		path := taskmap.MergedPath(cfg.Results.Dir, combo)
		rows, err := results.ReadCSV(path)
		if err != nil {
			return err
		}
		fmt.Printf("merged %s/%s: %d shards, %d rows -> %s\n",
			combo.Solver, combo.Mode, merged, len(rows), path)
		results.Summarize(rows).Print(os.Stdout, fmt.Sprintf("%s/%s", combo.Solver, combo.Mode))
	}
	return nil
}
