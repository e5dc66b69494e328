package solver

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"syftbench/internal/executor"
	"syftbench/internal/taskmap"
)

// SyftSolver adapts the standard Syft build (the christian variant). The
// binary takes the formula file, the partition file, a starting-player
// flag and the mode name directly.
type SyftSolver struct {
	name string
	path string
}

// Name implements Solver.
func (s *SyftSolver) Name() string { return s.name }

// Prepare implements Solver. The standard build derives everything it
// needs from the formula itself.
func (s *SyftSolver) Prepare(_ context.Context, _ *executor.Runner, _, _ string, _ taskmap.Mode) error {
	return nil
}

// Command implements Solver.
func (s *SyftSolver) Command(inputFile, partFile string, mode taskmap.Mode) (executor.Command, error) {
	return executor.Command{
		Binary: s.path,
		Args:   []string{inputFile, partFile, "0", string(mode)},
	}, nil
}

var numberRe = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`)

// ParseOutput implements Solver. The verdict appears as a capitalized
// Realizable/Unrealizable line; the runtime is the numeric figure on the
// second-to-last output line.
func (s *SyftSolver) ParseOutput(output string) Verdict {
	v := Verdict{Result: Unknown}
	if strings.Contains(output, "Unrealizable") {
		v.Result = Unrealizable
	} else if strings.Contains(output, "Realizable") {
		v.Result = Realizable
	}

	lines := nonEmptyLines(output)
	if len(lines) >= 2 {
		if m := numberRe.FindString(lines[len(lines)-2]); m != "" {
			if t, err := strconv.ParseFloat(m, 64); err == nil {
				v.TimeMS = t
			}
		}
	}
	return v
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
