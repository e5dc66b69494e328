package results

import (
	"fmt"
	"io"
	"strings"
)

// Summary tallies case outcomes for one run.
type Summary struct {
	Passed       int
	Failed       int
	Timeout      int
	Errors       int
	Inconsistent int
	Unknown      int
}

// Add counts one row's status.
func (s *Summary) Add(status string) {
	switch {
	case status == StatusPassed:
		s.Passed++
	case status == StatusFailed:
		s.Failed++
	case status == StatusTimeout:
		s.Timeout++
	case status == StatusInconsistent:
		s.Inconsistent++
	case strings.HasPrefix(status, "error("):
		s.Errors++
	default:
		s.Unknown++
	}
}

// Summarize tallies a row set.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.Add(r.Status)
	}
	return s
}

// Total returns the number of counted cases.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Timeout + s.Errors + s.Inconsistent + s.Unknown
}

// Print writes the summary block in the harness's traditional format.
func (s Summary) Print(w io.Writer, label string) {
	fmt.Fprintf(w, "--- Statistics for %s ---\n", label)
	fmt.Fprintf(w, "SUCCESS: %d\n", s.Passed)
	fmt.Fprintf(w, "FAILED: %d\n", s.Failed)
	fmt.Fprintf(w, "TIMEOUT: %d\n", s.Timeout)
	fmt.Fprintf(w, "ERROR: %d\n", s.Errors)
	if s.Inconsistent > 0 {
		fmt.Fprintf(w, "INCONSISTENT: %d\n", s.Inconsistent)
	}
	if s.Unknown > 0 {
		fmt.Fprintf(w, "UNKNOWN: %d\n", s.Unknown)
	}
}
