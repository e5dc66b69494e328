// Package suite collects LTLf benchmark cases from disk, partitions them
// into shards, and stages individual cases into scratch directories for a
// solver run.
//
// Two benchmark layouts are supported. The primary layout keeps each case's
// partition file and expected verdict next to the formula:
//
//	family/case.ltlf
//	family/case.part
//	family/expected.txt   (0 or 1)
//
// The lucas benchmark layout keeps partition files in a sibling directory
// and usually omits the expected verdict:
//
//	family/ltlf/case.ltlf
//	family/part/case.part
package suite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Expected verdict values as written in expected.txt.
const (
	ExpectedUnrealizable = 0
	ExpectedRealizable   = 1
)

// Case is one collected benchmark instance.
type Case struct {
	// Formula is the .ltlf file path.
	Formula string

	// Part is the partition file path.
	Part string

	// Expected is the known verdict (ExpectedRealizable or
	// ExpectedUnrealizable). Lucas-layout cases without an expected.txt
	// default to realizable.
	Expected int
}

// Name returns a stable identifier for the case, the formula path.
func (c Case) Name() string {
	return c.Formula
}

// Collect walks dir and returns all benchmark cases, sorted by formula
// path. If any formula in the primary layout is missing its companion
// files the error names the path that was expected.
func Collect(dir string) ([]Case, error) {
	var formulas []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".ltlf") {
			formulas = append(formulas, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk test directory %s: %w", dir, err)
	}
	if len(formulas) == 0 {
		return nil, fmt.Errorf("no .ltlf files under %s", dir)
	}
	sort.Strings(formulas)

	// Layout is decided per tree: any sibling .part file means the
	// primary layout, where companions are mandatory.
	primary := false
	for _, f := range formulas {
		if fileExists(siblingPart(f)) {
			primary = true
			break
		}
	}

	var cases []Case
	for _, f := range formulas {
		if primary {
			c, err := collectPrimary(f)
			if err != nil {
				return nil, err
			}
			cases = append(cases, c)
			continue
		}
		c, ok := collectLucas(f)
		if ok {
			cases = append(cases, c)
		}
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no usable cases under %s (no partition files found)", dir)
	}
	return cases, nil
}

func collectPrimary(formula string) (Case, error) {
	part := siblingPart(formula)
	if !fileExists(part) {
		return Case{}, fmt.Errorf("case %s: expected to find %s", formula, part)
	}
	expectedFile := filepath.Join(filepath.Dir(formula), "expected.txt")
	expected, err := readExpected(expectedFile)
	if err != nil {
		return Case{}, fmt.Errorf("case %s: %w", formula, err)
	}
	return Case{Formula: formula, Part: part, Expected: expected}, nil
}

func collectLucas(formula string) (Case, bool) {
	stem := strings.TrimSuffix(filepath.Base(formula), ".ltlf")
	part := filepath.Join(filepath.Dir(formula), "..", "part", stem+".part")
	if !fileExists(part) {
		return Case{}, false
	}
	expected := ExpectedRealizable
	if e, err := readExpected(filepath.Join(filepath.Dir(formula), "expected.txt")); err == nil {
		expected = e
	}
	return Case{Formula: formula, Part: filepath.Clean(part), Expected: expected}, true
}

func readExpected(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("expected to find %s: %w", path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || (v != ExpectedUnrealizable && v != ExpectedRealizable) {
		return 0, fmt.Errorf("expected to find 0 or 1 in %s", path)
	}
	return v, nil
}

func siblingPart(formula string) string {
	return strings.TrimSuffix(formula, ".ltlf") + ".part"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Shard returns the slice of cases belonging to shard index of total.
// Assignment is round-robin over the sorted case list, so shards stay
// balanced even when one benchmark family dominates the tail.
func Shard(cases []Case, shard, total int) ([]Case, error) {
	if total < 1 {
		return nil, fmt.Errorf("shard count must be positive, got %d", total)
	}
	if shard < 0 || shard >= total {
		return nil, fmt.Errorf("shard index %d not in [0, %d)", shard, total)
	}
	var out []Case
	for i := shard; i < len(cases); i += total {
		out = append(out, cases[i])
	}
	return out, nil
}
