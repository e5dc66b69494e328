package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"syftbench/internal/config"
	"syftbench/internal/results"
	"syftbench/internal/taskmap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSolver writes an executable script that plays the part of a Syft
// build: it prints the given verdict line, a timing line, and a trailer.
func fakeSolver(t *testing.T, dir, verdict string) string {
	t.Helper()
	path := filepath.Join(dir, "Syft")
	script := "#!/bin/sh\necho " + verdict + "\necho 100.0\necho done\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// writeCase lays out one primary-layout benchmark case under dir.
func writeCase(t *testing.T, dir, name, formula string, expected string) {
	t.Helper()
	caseDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(caseDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, name+".ltlf"), []byte(formula), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, name+".part"), []byte(".inputs: x\n.outputs: y\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "expected.txt"), []byte(expected), 0644))
}

func testConfig(t *testing.T, solverPath string) *config.Config {
	t.Helper()
	testDir := filepath.Join(t.TempDir(), "tests")
	cfg := config.Default()
	cfg.Solvers = []config.SolverConfig{{Name: "christian", Path: solverPath}}
	cfg.Suite.TestDir = testDir
	cfg.Suite.Shards = 1
	cfg.Results.Dir = filepath.Join(t.TempDir(), "results")
	cfg.Results.ArchivePath = ""
	return cfg
}

func TestExecuteAssignment_WritesShardCSV(t *testing.T) {
	solverPath := fakeSolver(t, t.TempDir(), "Realizable")
	cfg := testConfig(t, solverPath)
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "1")
	writeCase(t, cfg.Suite.TestDir, "b", "F y\n", "0")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1) // christian/direct, unsharded
	require.NoError(t, err)

	sum, err := r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Failed)

	rows, err := results.ReadCSV(a.OutputPath(cfg.Results.Dir))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Rows come back sorted by test name: a expects realizable and the
	// fake solver agrees, b expects unrealizable and is contradicted.
	assert.Equal(t, results.StatusPassed, rows[0].Status)
	assert.InDelta(t, 0.1, rows[0].TimeSec, 1e-9)
	assert.Equal(t, results.StatusFailed, rows[1].Status)
}

func TestExecuteAssignment_DisregardSkipsVerdictCheck(t *testing.T) {
	solverPath := fakeSolver(t, t.TempDir(), "Realizable")
	cfg := testConfig(t, solverPath)
	cfg.Suite.Disregard = "main"
	writeCase(t, cfg.Suite.TestDir, "a", "G x\nF y\n", "0")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	sum, err := r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Zero(t, sum.Failed)
}

func TestExecuteAssignment_CanceledRunAbortsWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Syft")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nsleep 30\n"), 0755))
	cfg := testConfig(t, path)
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "1")
	writeCase(t, cfg.Suite.TestDir, "b", "F y\n", "0")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = r.ExecuteAssignment(ctx, a)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 15*time.Second)

	// An interrupted shard must not leave a complete-looking CSV of
	// fabricated timeout rows behind.
	assert.NoFileExists(t, a.OutputPath(cfg.Results.Dir))
}

func TestExecuteAssignment_ErrorExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Syft")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 3\n"), 0755))
	cfg := testConfig(t, path)
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "1")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	sum, err := r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)

	rows, err := results.ReadCSV(a.OutputPath(cfg.Results.Dir))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "error(3)", rows[0].Status)
}

func TestExecuteAssignment_UnparsableOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Syft")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho mumbling\n"), 0755))
	cfg := testConfig(t, path)
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "1")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	sum, err := r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Unknown)
}

func TestExecuteAssignment_ShardedRunsSubset(t *testing.T) {
	solverPath := fakeSolver(t, t.TempDir(), "Realizable")
	cfg := testConfig(t, solverPath)
	cfg.Suite.Shards = 2
	for _, name := range []string{"a", "b", "c"} {
		writeCase(t, cfg.Suite.TestDir, name, "G x\n", "1")
	}

	r := New(cfg, nil)
	a, err := taskmap.Resolve(7, 2) // christian/direct shard 1
	require.NoError(t, err)

	_, err = r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)

	// Round-robin gives shard 1 only the middle case.
	rows, err := results.ReadCSV(a.OutputPath(cfg.Results.Dir))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Test, "b.ltlf")
}

func TestExecuteAssignment_ArchivesRun(t *testing.T) {
	solverPath := fakeSolver(t, t.TempDir(), "Unrealizable")
	cfg := testConfig(t, solverPath)
	cfg.Results.ArchivePath = filepath.Join(t.TempDir(), "archive.db")
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "0")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	_, err = r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)

	arch, err := results.OpenArchive(cfg.Results.ArchivePath)
	require.NoError(t, err)
	defer arch.Close()
	runs, err := arch.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "christian", runs[0].Solver)
	assert.Equal(t, "direct", runs[0].Mode)
}

func TestExecuteAssignment_WritesCaseLogs(t *testing.T) {
	solverPath := fakeSolver(t, t.TempDir(), "Realizable")
	cfg := testConfig(t, solverPath)
	cfg.Results.LogDir = filepath.Join(t.TempDir(), "logs")
	writeCase(t, cfg.Suite.TestDir, "a", "G x\n", "1")

	r := New(cfg, nil)
	a, err := taskmap.Resolve(3, 1)
	require.NoError(t, err)

	_, err = r.ExecuteAssignment(context.Background(), a)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Results.LogDir, "a_christian_iter0.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Realizable")
}

func TestExecuteAssignment_UnknownSolver(t *testing.T) {
	cfg := testConfig(t, "/nonexistent/Syft")
	cfg.Solvers = []config.SolverConfig{{Name: "other", Path: "/nonexistent/Syft"}}

	r := New(cfg, nil)
	a, err := taskmap.Resolve(0, 1) // lucas/direct, not configured
	require.NoError(t, err)

	_, err = r.ExecuteAssignment(context.Background(), a)
	assert.Error(t, err)
}
