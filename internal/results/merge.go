package results

import (
	"fmt"
	"os"

	"syftbench/internal/taskmap"
)

// MergeOptions controls shard aggregation.
type MergeOptions struct {
	// Partial tolerates missing shard files, merging whatever is
	// present. Without it a missing shard fails the merge, since a
	// silent gap in a benchmark table is worse than a late one.
	Partial bool
}

// MergeCombination concatenates the shard CSVs of one (solver, mode)
// combination into its merged file and reports how many shards
// contributed.
func MergeCombination(resultsDir string, combo taskmap.Combination, shards int, opts MergeOptions) (int, error) {
	var rows []Row
	merged := 0
	for shard := 0; shard < shards; shard++ {
		a := taskmap.Assignment{
			Solver: combo.Solver,
			Mode:   combo.Mode,
			Shard:  shard,
			Shards: shards,
		}
		path := a.OutputPath(resultsDir)
		shardRows, err := ReadCSV(path)
		if err != nil {
			if os.IsNotExist(err) && opts.Partial {
				continue
			}
			return 0, fmt.Errorf("shard %d of %s/%s: %w", shard, combo.Solver, combo.Mode, err)
		}
		rows = append(rows, shardRows...)
		merged++
	}
	if merged == 0 {
		return 0, fmt.Errorf("no shard files for %s/%s under %s", combo.Solver, combo.Mode, resultsDir)
	}

	SortRows(rows)
	if err := WriteCSV(taskmap.MergedPath(resultsDir, combo), rows); err != nil {
		return 0, err
	}
	return merged, nil
}

// MergeAll merges every combination and returns the merged file paths.
func MergeAll(resultsDir string, shards int, opts MergeOptions) ([]string, error) {
	var paths []string
	for _, combo := range taskmap.Combinations {
		if _, err := MergeCombination(resultsDir, combo, shards, opts); err != nil {
			return nil, err
		}
		paths = append(paths, taskmap.MergedPath(resultsDir, combo))
	}
	return paths, nil
}
