// Package solver adapts the two external Syft builds behind a common
// interface: building the command line for a staged case, optionally
// generating derived inputs first, and parsing the verdict out of solver
// output. The synthesis work itself happens entirely inside the external
// binaries.
package solver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"syftbench/internal/config"
	"syftbench/internal/executor"
	"syftbench/internal/taskmap"
)

// Realizability is a solver's answer for one case.
type Realizability int

const (
	// Unknown means the output mentioned neither verdict.
	Unknown Realizability = iota - 1
	Unrealizable
	Realizable
)

func (r Realizability) String() string {
	switch r {
	case Realizable:
		return "realizable"
	case Unrealizable:
		return "unrealizable"
	default:
		return "unknown"
	}
}

// Verdict is the parsed outcome of one solver invocation.
type Verdict struct {
	Result Realizability

	// TimeMS is the solver-reported runtime in milliseconds, zero when
	// the output carried no recognizable timing figure.
	TimeMS float64
}

// Solver is one external Syft build.
type Solver interface {
	// Name identifies the build; it appears in result file names.
	Name() string

	// Prepare generates derived inputs (MONA DFAs) the staged case is
	// missing for the given mode. It runs before Command.
	Prepare(ctx context.Context, run *executor.Runner, inputFile, partFile string, mode taskmap.Mode) error

	// Command returns the invocation for a staged case.
	Command(inputFile, partFile string, mode taskmap.Mode) (executor.Command, error)

	// ParseOutput extracts the verdict from combined solver output.
	ParseOutput(output string) Verdict
}

// New returns the adapter for a configured solver entry. The lucas build
// gets its dedicated adapter; every other entry is treated as a standard
// Syft build.
func New(sc config.SolverConfig) (Solver, error) {
	path, err := sc.ResolvedPath()
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(sc.Name), "lucas") {
		return &LucasSolver{name: sc.Name, path: path}, nil
	}
	return &SyftSolver{name: sc.Name, path: path}, nil
}

// FromConfig builds the solver set from configuration. Entries whose
// binary does not exist are skipped with a warning, matching how partial
// cluster installs are handled: a run can still cover the builds that are
// present.
func FromConfig(cfg *config.Config, log *zap.Logger) ([]Solver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var solvers []Solver
	for _, sc := range cfg.Solvers {
		s, err := New(sc)
		if err != nil {
			return nil, err
		}
		path, _ := sc.ResolvedPath()
		if _, err := os.Stat(path); err != nil {
			log.Warn("solver binary not found, skipping",
				zap.String("solver", sc.Name),
				zap.String("path", path))
			continue
		}
		solvers = append(solvers, s)
	}
	if len(solvers) == 0 {
		return nil, fmt.Errorf("no solver binaries found")
	}
	return solvers, nil
}

// ByName returns the configured adapter for one solver, without the
// existence check (the run itself will surface a missing binary).
func ByName(cfg *config.Config, name taskmap.Solver) (Solver, error) {
	sc, err := cfg.Solver(string(name))
	if err != nil {
		return nil, err
	}
	return New(sc)
}
