package suite

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disregard selects a formula line to replace with a tautology before
// solving, used to measure the influence of the main or backup objective.
type Disregard string

const (
	DisregardNone   Disregard = ""
	DisregardMain   Disregard = "main"
	DisregardBackup Disregard = "backup"
)

// dfaSuffixes are derived solver inputs copied alongside a staged case
// when present.
var dfaSuffixes = []string{".dfa", ".dfa.rev.neg", ".dfa.quant"}

// monaSuffixes are MONA sources from which missing DFAs can be generated.
var monaSuffixes = []string{".mona", ".mona.rev.neg", ".mona.quant"}

// partSuffixes are partition variants used by individual solver modes.
var partSuffixes = []string{".rev.neg", ".quant"}

// StagedCase is a benchmark case copied into a scratch directory with all
// inputs normalized for one solver. Array tasks never share a staged
// directory, so no locking is needed around solver invocations.
type StagedCase struct {
	// Dir is the scratch directory holding every staged file.
	Dir string

	// Input is the staged formula file.
	Input string

	// Part is the staged partition file.
	Part string

	// Source is the case this staging was built from.
	Source Case
}

// Cleanup removes the scratch directory.
func (s *StagedCase) Cleanup() {
	if s.Dir != "" {
		os.RemoveAll(s.Dir)
	}
}

// Stage copies a case into a fresh scratch directory under baseDir (or the
// system temp dir when empty) and normalizes its inputs for the named
// solver:
//
//   - a solver-specific partition file is preferred when one exists
//     (<stem>.<solver>.part, then <part name>.<solver>)
//   - the partition file is rewritten to canonical form
//   - formulas are normalized and per-variable tautologies appended
//   - single-line formulas are duplicated for the christian build, whose
//     front end expects a main/backup pair
//   - precomputed DFA and MONA variants are copied unless a disregard is
//     active, in which case they would describe the wrong formula
func Stage(c Case, solverName string, baseDir string, disregard Disregard) (*StagedCase, error) {
	dir, err := os.MkdirTemp(baseDir, "syftbench-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	staged, err := stageInto(c, solverName, dir, disregard)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return staged, nil
}

func stageInto(c Case, solverName, dir string, disregard Disregard) (*StagedCase, error) {
	staged := &StagedCase{
		Dir:    dir,
		Input:  filepath.Join(dir, filepath.Base(c.Formula)),
		Part:   filepath.Join(dir, filepath.Base(c.Part)),
		Source: c,
	}

	partSource := selectPartFile(c.Part, solverName)
	if err := copyFile(partSource, staged.Part); err != nil {
		return nil, fmt.Errorf("failed to stage partition file: %w", err)
	}
	if err := NormalizePartFile(staged.Part); err != nil {
		return nil, err
	}

	vars, err := PartVariables(staged.Part)
	if err != nil {
		return nil, err
	}

	lines, err := readFormulaLines(c.Formula)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(solverName), "christian") && len(lines) == 1 {
		lines = append(lines, lines[0])
	}
	for i, l := range lines {
		lines[i] = NormalizeFormula(l, vars)
	}
	switch disregard {
	case DisregardMain:
		lines[0] = SafeTrue(vars)
	case DisregardBackup:
		if len(lines) < 2 {
			return nil, fmt.Errorf("case %s has no backup formula line to disregard", c.Name())
		}
		lines[1] = SafeTrue(vars)
	}
	lines = append(lines, SafeTautologies(vars)...)

	if err := os.WriteFile(staged.Input, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write staged formula: %w", err)
	}

	if disregard == DisregardNone {
		copyDerivedInputs(c, staged)
	}
	copyPartVariants(partSource, staged)

	return staged, nil
}

// selectPartFile prefers a solver-specific partition file over the shared
// one, matching the benchmark trees where the two builds disagree on the
// partition format.
func selectPartFile(part, solverName string) string {
	name := strings.ToLower(solverName)
	dir := filepath.Dir(part)
	base := filepath.Base(part)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	specific := filepath.Join(dir, stem+"."+name+filepath.Ext(base))
	if fileExists(specific) {
		return specific
	}
	specific = filepath.Join(dir, base+"."+name)
	if fileExists(specific) {
		return specific
	}
	return part
}

// copyDerivedInputs copies precomputed DFA files and their MONA sources
// next to the staged formula. MONA sources are also looked up in a sibling
// "mso" directory, where some benchmark families keep them.
func copyDerivedInputs(c Case, staged *StagedCase) {
	for _, suffix := range dfaSuffixes {
		src := c.Formula + suffix
		if fileExists(src) {
			_ = copyFile(src, staged.Input+suffix)
		}
	}

	stem := strings.TrimSuffix(filepath.Base(c.Formula), ".ltlf")
	parent := filepath.Dir(c.Formula)
	for _, suffix := range monaSuffixes {
		for _, srcDir := range []string{parent, filepath.Join(parent, "..", "mso")} {
			src := filepath.Join(srcDir, stem+suffix)
			if fileExists(src) {
				_ = copyFile(src, filepath.Join(staged.Dir, stem+suffix))
				break
			}
		}
	}
}

func copyPartVariants(partSource string, staged *StagedCase) {
	for _, suffix := range partSuffixes {
		src := partSource + suffix
		if fileExists(src) {
			_ = copyFile(src, staged.Part+suffix)
		}
	}
}

func readFormulaLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula file: %w", err)
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("formula file %s is empty", path)
	}
	return lines, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
