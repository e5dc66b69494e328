// Package results writes, merges and archives benchmark result artifacts.
// Every array task owns exactly one CSV file, so writers never contend;
// merging happens after the array has drained.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Status values recorded per case. Error statuses carry the solver's exit
// code, e.g. "error(134)".
const (
	StatusPassed       = "passed"
	StatusFailed       = "failed"
	StatusTimeout      = "timeout"
	StatusInconsistent = "inconsistent"
	StatusUnknown      = "unknown"
)

// ErrorStatus renders the status for a solver that exited non-zero. The
// exit code is propagated unchanged, never interpreted.
func ErrorStatus(exitCode int) string {
	return fmt.Sprintf("error(%d)", exitCode)
}

// Row is one case's result.
type Row struct {
	// Test is the case identifier (the formula path).
	Test string

	// TimeSec is the mean solver-reported runtime in seconds.
	TimeSec float64

	// Status is one of the Status constants or an ErrorStatus.
	Status string
}

var header = []string{"test", "time", "status"}

// WriteCSV writes rows to path atomically (temp file plus rename): SLURM
// may requeue a task, and a requeued task must never leave a half-written
// artifact behind for the merge step to trip over.
func WriteCSV(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp result file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write result header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Test, strconv.FormatFloat(r.TimeSec, 'f', -1, 64), r.Status}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp result file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move result file into place: %w", err)
	}
	return nil
}

// ReadCSV reads a result file written by WriteCSV.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("result file %s is empty", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", path, i+2, len(header), len(rec))
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad time %q", path, i+2, rec[1])
		}
		rows = append(rows, Row{Test: rec[0], TimeSec: t, Status: rec[2]})
	}
	return rows, nil
}

// SortRows orders rows by test name for stable artifacts.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Test < rows[j].Test })
}
