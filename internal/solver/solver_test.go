package solver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"syftbench/internal/config"
	"syftbench/internal/executor"
	"syftbench/internal/taskmap"
)

func TestNew_SelectsAdapter(t *testing.T) {
	t.Parallel()

	s, err := New(config.SolverConfig{Name: "lucas", Path: "/opt/Syft"})
	require.NoError(t, err)
	assert.IsType(t, &LucasSolver{}, s)

	s, err = New(config.SolverConfig{Name: "christian", Path: "/opt/Syft"})
	require.NoError(t, err)
	assert.IsType(t, &SyftSolver{}, s)
}

func TestSyftSolver_Command(t *testing.T) {
	t.Parallel()

	s := &SyftSolver{name: "christian", path: "/opt/Syft"}
	cmd, err := s.Command("/tmp/c/a.ltlf", "/tmp/c/a.part", taskmap.ModeBelief)
	require.NoError(t, err)
	assert.Equal(t, "/opt/Syft", cmd.Binary)
	assert.Equal(t, []string{"/tmp/c/a.ltlf", "/tmp/c/a.part", "0", "belief"}, cmd.Args)
}

func TestSyftSolver_ParseOutput(t *testing.T) {
	t.Parallel()
	s := &SyftSolver{name: "christian"}

	cases := []struct {
		name     string
		output   string
		want     Realizability
		wantTime float64
	}{
		{
			name:     "realizable_with_time",
			output:   "parsing done\nRealizable\ntotal time: 123.5\ndone\n",
			want:     Realizable,
			wantTime: 123.5,
		},
		{
			name:     "unrealizable",
			output:   "Unrealizable\n42\nend\n",
			want:     Unrealizable,
			wantTime: 42,
		},
		{
			name:   "no_verdict",
			output: "segfault\n",
			want:   Unknown,
		},
		{
			name:     "short_output_no_time",
			output:   "Realizable\n",
			want:     Realizable,
			wantTime: 0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := s.ParseOutput(tc.output)
			assert.Equal(t, tc.want, v.Result)
			assert.Equal(t, tc.wantTime, v.TimeMS)
		})
	}
}

func TestLucasSolver_Command_ModeTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a.ltlf")
	part := filepath.Join(dir, "a.part")
	require.NoError(t, os.WriteFile(part, []byte(".inputs: x\n.outputs: y\n"), 0644))
	require.NoError(t, os.WriteFile(part+".quant", []byte(".inputs: x\n.outputs: y\n"), 0644))

	s := &LucasSolver{name: "lucas", path: "/opt/Syft"}

	cases := []struct {
		mode     taskmap.Mode
		wantArgs []string
	}{
		{taskmap.ModeDirect, []string{input + ".dfa", part, "0", "partial", "dfa"}},
		// .part.rev.neg does not exist, so belief falls back to the base part file.
		{taskmap.ModeBelief, []string{input + ".dfa.rev.neg", part, "0", "partial", "cordfa"}},
		{taskmap.ModeMSO, []string{input + ".dfa.quant", part + ".quant", "0", "full", "dfa"}},
	}

	for _, tc := range cases {
		cmd, err := s.Command(input, part, tc.mode)
		require.NoError(t, err)
		assert.Equal(t, "/opt/Syft", cmd.Binary)
		assert.Equal(t, tc.wantArgs, cmd.Args, "mode %s", tc.mode)
	}

	_, err := s.Command(input, part, taskmap.Mode("bogus"))
	assert.Error(t, err)
}

func TestLucasSolver_ParseOutput(t *testing.T) {
	t.Parallel()
	s := &LucasSolver{name: "lucas"}

	v := s.ParseOutput("building dfa\nsolving took 250.5 ms\nresult: realizable\n")
	assert.Equal(t, Realizable, v.Result)
	assert.Equal(t, 250.5, v.TimeMS)

	v = s.ParseOutput("result: unrealizable\ntotal 17 ms\n")
	assert.Equal(t, Unrealizable, v.Result, "unrealizable must not be read as realizable")
	assert.Equal(t, 17.0, v.TimeMS)

	v = s.ParseOutput("nothing useful\n")
	assert.Equal(t, Unknown, v.Result)
	assert.Zero(t, v.TimeMS)
}

func TestLucasSolver_Prepare_ExistingDFA(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a.ltlf")
	require.NoError(t, os.WriteFile(input+".dfa", []byte("dfa"), 0644))

	s := &LucasSolver{name: "lucas", path: "/opt/Syft"}
	run := executor.NewRunner(executor.DefaultConfig(), nil)
	require.NoError(t, s.Prepare(context.Background(), run, input, "", taskmap.ModeDirect))
}

func TestLucasSolver_Prepare_MissingSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a.ltlf")

	s := &LucasSolver{name: "lucas", path: "/opt/Syft"}
	run := executor.NewRunner(executor.DefaultConfig(), nil)
	err := s.Prepare(context.Background(), run, input, "", taskmap.ModeMSO)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.mona.quant")
}

func TestFromConfig_SkipsMissingBinaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "Syft")
	require.NoError(t, os.WriteFile(present, []byte("#!/bin/sh\n"), 0755))

	cfg := config.Default()
	cfg.Solvers = []config.SolverConfig{
		{Name: "lucas", Path: present},
		{Name: "christian", Path: filepath.Join(dir, "missing")},
	}

	solvers, err := FromConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, solvers, 1)
	assert.Equal(t, "lucas", solvers[0].Name())

	cfg.Solvers = []config.SolverConfig{{Name: "christian", Path: filepath.Join(dir, "missing")}}
	_, err = FromConfig(cfg, zap.NewNop())
	assert.Error(t, err)
}
