// Package taskmap maps scheduler array-task indices onto benchmark
// configurations. A run covers the full cross product of solver builds and
// solving modes, each split into a fixed number of shards; every SLURM array
// task resolves its index to exactly one (solver, mode, shard) assignment and
// a result file no other task writes.
package taskmap

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Solver identifies one of the external Syft builds under test.
type Solver string

// Mode identifies a solving strategy supported by both builds.
type Mode string

const (
	SolverLucas     Solver = "lucas"
	SolverChristian Solver = "christian"

	ModeDirect Mode = "direct"
	ModeBelief Mode = "belief"
	ModeMSO    Mode = "mso"
)

// Combination is an ordered (solver, mode) pair.
type Combination struct {
	Solver Solver
	Mode   Mode
}

// Combinations is the fixed ordering that defines the index mapping.
// It must not change between submitting a job array and running its tasks:
// the array bounds and every task's self-resolution both derive from it.
var Combinations = []Combination{
	{SolverLucas, ModeDirect},
	{SolverLucas, ModeBelief},
	{SolverLucas, ModeMSO},
	{SolverChristian, ModeDirect},
	{SolverChristian, ModeBelief},
	{SolverChristian, ModeMSO},
}

// Modes returns the distinct solving modes in combination order.
func Modes() []Mode {
	var out []Mode
	seen := make(map[Mode]bool)
	for _, c := range Combinations {
		if !seen[c.Mode] {
			seen[c.Mode] = true
			out = append(out, c.Mode)
		}
	}
	return out
}

// ErrIndexOutOfRange is returned when a task index falls outside the
// combination x shard space declared for the run.
var ErrIndexOutOfRange = errors.New("task index out of range")

// Assignment is the resolved configuration for one array task.
type Assignment struct {
	Task   int
	Solver Solver
	Mode   Mode
	Shard  int
	Shards int // shards per combination the run was submitted with
}

// Resolve maps a zero-based task index to its assignment.
// The mapping is a pure bijection over [0, 6*shards): consecutive indices
// walk the shards of one combination before moving to the next.
func Resolve(taskIndex, shards int) (Assignment, error) {
	if shards < 1 {
		return Assignment{}, fmt.Errorf("shards per combination must be positive, got %d", shards)
	}
	if taskIndex < 0 || taskIndex >= len(Combinations)*shards {
		return Assignment{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, taskIndex, len(Combinations)*shards)
	}
	combo := Combinations[taskIndex/shards]
	return Assignment{
		Task:   taskIndex,
		Solver: combo.Solver,
		Mode:   combo.Mode,
		Shard:  taskIndex % shards,
		Shards: shards,
	}, nil
}

// TaskCount returns the size of the array for a run with the given shard
// count, i.e. the exclusive upper bound on valid task indices.
func TaskCount(shards int) int {
	return len(Combinations) * shards
}

// ArrayRange returns the SLURM --array specification covering every task of
// a run, e.g. "0-95" for 16 shards per combination.
func ArrayRange(shards int) string {
	return fmt.Sprintf("0-%d", TaskCount(shards)-1)
}

// OutputPath returns the result artifact path for this assignment. Paths are
// pairwise distinct across all tasks of a run, so parallel array tasks never
// collide. The shard suffix is dropped for unsharded runs to keep the legacy
// single-task naming.
func (a Assignment) OutputPath(resultsDir string) string {
	if a.Shards == 1 {
		return filepath.Join(resultsDir, fmt.Sprintf("test_%s_%s.csv", a.Solver, a.Mode))
	}
	return filepath.Join(resultsDir, fmt.Sprintf("test_%s_%s_shard_%d.csv", a.Solver, a.Mode, a.Shard))
}

// MergedPath returns the aggregation target for one combination's shard
// files.
func MergedPath(resultsDir string, c Combination) string {
	return filepath.Join(resultsDir, fmt.Sprintf("test_%s_%s.csv", c.Solver, c.Mode))
}

func (a Assignment) String() string {
	return fmt.Sprintf("task %d: %s/%s shard %d/%d", a.Task, a.Solver, a.Mode, a.Shard, a.Shards)
}
