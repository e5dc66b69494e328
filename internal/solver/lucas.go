package solver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"syftbench/internal/executor"
	"syftbench/internal/taskmap"
)

// modeInputs describes which input variants of a staged case the lucas
// build consumes for one mode.
type modeInputs struct {
	observability string // "partial" or "full"
	inputType     string // "dfa" or "cordfa"
	dfaSuffix     string
	partSuffix    string
}

// lucasModes maps each solving mode to its invocation shape:
// direct synthesizes over belief states from the plain DFA, belief uses
// the projection-based reverse-negated DFA, and mso works on the fully
// quantified DFA.
var lucasModes = map[taskmap.Mode]modeInputs{
	taskmap.ModeDirect: {"partial", "dfa", ".dfa", ""},
	taskmap.ModeBelief: {"partial", "cordfa", ".dfa.rev.neg", ".rev.neg"},
	taskmap.ModeMSO:    {"full", "dfa", ".dfa.quant", ".quant"},
}

// LucasSolver adapts the lucas Syft build, which consumes precomputed
// MONA DFAs rather than raw formulas.
type LucasSolver struct {
	name string
	path string
}

// Name implements Solver.
func (s *LucasSolver) Name() string { return s.name }

// Prepare implements Solver. When the mode's DFA variant is missing it is
// generated by running MONA on the matching .mona source staged next to
// the formula. A case with neither file cannot run in this mode.
func (s *LucasSolver) Prepare(ctx context.Context, run *executor.Runner, inputFile, _ string, mode taskmap.Mode) error {
	inputs, ok := lucasModes[mode]
	if !ok {
		return fmt.Errorf("solver %s does not support mode %q", s.name, mode)
	}

	dfaFile := inputFile + inputs.dfaSuffix
	if fileExists(dfaFile) {
		return nil
	}

	stem := strings.TrimSuffix(filepath.Base(inputFile), ".ltlf")
	monaSuffix := strings.Replace(inputs.dfaSuffix, ".dfa", ".mona", 1)
	monaSource := filepath.Join(filepath.Dir(inputFile), stem+monaSuffix)
	if !fileExists(monaSource) {
		return fmt.Errorf("%s not found and no %s to generate it from", dfaFile, monaSource)
	}

	res, err := run.Run(ctx, executor.Command{
		Binary: "mona",
		Args:   []string{"-u", "-xw", monaSource},
	})
	if err != nil {
		return fmt.Errorf("failed to run mona on %s: %w", monaSource, err)
	}
	if res.Killed || res.ExitCode != 0 {
		return fmt.Errorf("mona failed on %s (exit %d): %s", monaSource, res.ExitCode, res.Stderr)
	}
	if err := os.WriteFile(dfaFile, []byte(res.Stdout), 0644); err != nil {
		return fmt.Errorf("failed to write generated DFA: %w", err)
	}
	return nil
}

// Command implements Solver. The suffixed partition variant is preferred;
// benchmark families that ship only the base partition file fall back to
// it.
func (s *LucasSolver) Command(inputFile, partFile string, mode taskmap.Mode) (executor.Command, error) {
	inputs, ok := lucasModes[mode]
	if !ok {
		return executor.Command{}, fmt.Errorf("solver %s does not support mode %q", s.name, mode)
	}

	part := partFile + inputs.partSuffix
	if !fileExists(part) {
		part = partFile
	}

	return executor.Command{
		Binary: s.path,
		Args:   []string{inputFile + inputs.dfaSuffix, part, "0", inputs.observability, inputs.inputType},
	}, nil
}

var msTimingRe = regexp.MustCompile(`(\d+\.?\d*)\s*ms`)

// ParseOutput implements Solver. The lucas build reports the verdict in
// lowercase and prints its runtime as "<n> ms" near the end of the
// output; the last such figure wins.
func (s *LucasSolver) ParseOutput(output string) Verdict {
	v := Verdict{Result: Unknown}
	lower := strings.ToLower(output)
	// "unrealizable" contains "realizable", so it must be checked first.
	if strings.Contains(lower, "unrealizable") {
		v.Result = Unrealizable
	} else if strings.Contains(lower, "realizable") {
		v.Result = Realizable
	}

	lines := nonEmptyLines(output)
	for i := len(lines) - 1; i >= 0; i-- {
		if m := msTimingRe.FindStringSubmatch(lines[i]); m != nil {
			if t, err := strconv.ParseFloat(m[1], 64); err == nil {
				v.TimeMS = t
			}
			break
		}
	}
	return v
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
