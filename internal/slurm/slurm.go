// Package slurm renders sbatch submission scripts for a benchmark run and
// talks to the scheduler. Task self-identification happens through the
// SLURM_ARRAY_TASK_ID environment variable that the scheduler sets for
// every array task.
package slurm

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"syftbench/internal/config"
	"syftbench/internal/executor"
	"syftbench/internal/taskmap"
)

// TaskIDEnv is set by the scheduler inside every array task.
const TaskIDEnv = "SLURM_ARRAY_TASK_ID"

// TaskFromEnv reads the array task index from the scheduler environment.
func TaskFromEnv() (int, error) {
	raw, ok := os.LookupEnv(TaskIDEnv)
	if !ok {
		return 0, fmt.Errorf("%s is not set; outside a scheduler task, pass --task explicitly", TaskIDEnv)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", TaskIDEnv, raw, err)
	}
	return id, nil
}

// scriptTemplate covers the whole run with one job array: each task
// resolves its own (solver, mode, shard) from the array index, so the
// script needs no per-combination variants.
var scriptTemplate = template.Must(template.New("sbatch").Parse(`#!/bin/bash
#SBATCH --job-name={{.JobName}}
#SBATCH --array={{.ArrayRange}}
{{- if .Partition}}
#SBATCH --partition={{.Partition}}
{{- end}}
{{- if .Account}}
#SBATCH --account={{.Account}}
{{- end}}
{{- if .TimeLimit}}
#SBATCH --time={{.TimeLimit}}
{{- end}}
{{- if .Memory}}
#SBATCH --mem={{.Memory}}
{{- end}}
{{- if .Exclude}}
#SBATCH --exclude={{.Exclude}}
{{- end}}
#SBATCH --output={{.LogDir}}/slurm_%A_%a.out

{{.Binary}} run --config {{.ConfigPath}} --task "$SLURM_ARRAY_TASK_ID"
`))

type scriptParams struct {
	JobName    string
	ArrayRange string
	Partition  string
	Account    string
	TimeLimit  string
	Memory     string
	Exclude    string
	LogDir     string
	Binary     string
	ConfigPath string
}

// Script renders the sbatch script submitting the full run: one array
// task per (solver, mode, shard) assignment. configPath is the
// configuration file the tasks will load, binary the syftbench
// executable on the cluster.
func Script(cfg *config.Config, configPath, binary string) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	p := scriptParams{
		JobName:    cfg.Slurm.JobName,
		ArrayRange: taskmap.ArrayRange(cfg.Suite.Shards),
		Partition:  cfg.Slurm.Partition,
		Account:    cfg.Slurm.Account,
		TimeLimit:  cfg.Slurm.TimeLimit,
		Memory:     cfg.Slurm.Memory,
		Exclude:    strings.Join(cfg.Slurm.ExcludeNodes, ","),
		LogDir:     cfg.Results.Dir,
		Binary:     binary,
		ConfigPath: configPath,
	}
	if p.JobName == "" {
		p.JobName = "syftbench"
	}
	if p.Binary == "" {
		p.Binary = "syftbench"
	}

	var sb strings.Builder
	if err := scriptTemplate.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("failed to render sbatch script: %w", err)
	}
	return sb.String(), nil
}

var jobIDRe = regexp.MustCompile(`Submitted batch job (\d+)`)

// Submit feeds a rendered script to sbatch and returns the job ID.
func Submit(ctx context.Context, run *executor.Runner, script string) (int, error) {
	res, err := run.Run(ctx, executor.Command{
		Binary: "sbatch",
		Stdin:  script,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to invoke sbatch: %w", err)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("sbatch exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	m := jobIDRe.FindStringSubmatch(res.Stdout)
	if m == nil {
		return 0, fmt.Errorf("could not find job ID in sbatch output: %q", strings.TrimSpace(res.Stdout))
	}
	id, _ := strconv.Atoi(m[1])
	return id, nil
}
