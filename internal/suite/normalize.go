package suite

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// partition is the parsed content of a .part file.
type partition struct {
	inputs  map[string]bool
	outputs map[string]bool
	unobs   map[string]bool
}

func parsePartition(data string) partition {
	p := partition{
		inputs:  make(map[string]bool),
		outputs: make(map[string]bool),
		unobs:   make(map[string]bool),
	}
	for _, line := range strings.Split(data, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		var key, varsStr string
		if strings.HasPrefix(line, ".") {
			keyPart, rest, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			key = strings.TrimPrefix(strings.TrimSpace(keyPart), ".")
			varsStr = rest
		} else {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			key = strings.ReplaceAll(fields[0], ":", "")
			varsStr = strings.Join(fields[1:], " ")
		}

		var set map[string]bool
		switch key {
		case "inputs", "input":
			set = p.inputs
		case "outputs", "output":
			set = p.outputs
		case "unobservables", "unobservable":
			set = p.unobs
		default:
			continue
		}
		for _, v := range strings.Fields(strings.ReplaceAll(varsStr, ",", " ")) {
			if v = strings.TrimSpace(v); v != "" {
				set[v] = true
			}
		}
	}
	return p
}

// NormalizePartFile rewrites a partition file into the canonical
// ".inputs: / .outputs: / .unobservables:" form with lowercased, sorted
// variables. Under partial observability every unobservable must also be
// an input, so unobservables are folded into the input set.
func NormalizePartFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read partition file: %w", err)
	}
	p := parsePartition(string(data))
	for v := range p.unobs {
		p.inputs[v] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, ".inputs: %s\n", strings.Join(sortedKeys(p.inputs), " "))
	fmt.Fprintf(&b, ".outputs: %s\n", strings.Join(sortedKeys(p.outputs), " "))
	if len(p.unobs) > 0 {
		fmt.Fprintf(&b, ".unobservables: %s\n", strings.Join(sortedKeys(p.unobs), " "))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write partition file: %w", err)
	}
	return nil
}

// PartVariables returns all variables named in a partition file, sorted.
func PartVariables(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	p := parsePartition(string(data))
	all := make(map[string]bool)
	for _, set := range []map[string]bool{p.inputs, p.outputs, p.unobs} {
		for v := range set {
			all[v] = true
		}
	}
	return sortedKeys(all), nil
}

// SafeTautologies returns one tautology per variable. Appending these to a
// formula file keeps every partition variable mentioned, which some solver
// front ends require.
func SafeTautologies(vars []string) []string {
	if len(vars) == 0 {
		return []string{"true"}
	}
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = fmt.Sprintf("%s | ~%s", v, v)
	}
	return out
}

// SafeTrue returns a single tautological formula over the given variables,
// used to disregard a formula line without changing the variable set.
func SafeTrue(vars []string) string {
	return strings.Join(SafeTautologies(vars), " && ")
}

var operatorAliases = strings.NewReplacer(
	"&&", "&",
	"||", "|",
	"!", "~",
	"next", "X",
	"always", "G",
	"eventually", "F",
	"until", "U",
)

// NormalizeFormula standardizes a formula line: lowercased variables,
// canonical operator spellings, and true/false literals rewritten over the
// first partition variable because some ltlf2fol versions reject bare
// constants when a partition file is in play.
func NormalizeFormula(formula string, vars []string) string {
	f := strings.ToLower(formula)
	f = operatorAliases.Replace(f)
	f = strings.ReplaceAll(f, "<->", " <-> ")
	// Avoid splitting the arrow out of "<->": only pad "->" not preceded
	// by "<", which the replacement above already handled.
	f = padArrow(f)

	if len(vars) > 0 {
		v := vars[0]
		taut := fmt.Sprintf("(%s | ~%s)", v, v)
		contra := fmt.Sprintf("(%s & ~%s)", v, v)
		f = strings.ReplaceAll(f, " true ", " "+taut+" ")
		f = strings.ReplaceAll(f, "(true)", taut)
		f = strings.ReplaceAll(f, " false ", " "+contra+" ")
		f = strings.ReplaceAll(f, "(false)", contra)
		switch strings.TrimSpace(f) {
		case "true":
			f = taut
		case "false":
			f = contra
		}
	}

	return strings.Join(strings.Fields(f), " ")
}

func padArrow(f string) string {
	var b strings.Builder
	for i := 0; i < len(f); i++ {
		if f[i] == '-' && i+1 < len(f) && f[i+1] == '>' && (i == 0 || f[i-1] != '<') {
			b.WriteString(" -> ")
			i++
			continue
		}
		b.WriteByte(f[i])
	}
	return b.String()
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
