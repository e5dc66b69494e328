// Package runner executes one array task's shard of the benchmark suite
// against its assigned solver and mode, classifies case outcomes, and
// produces the task's result artifact. Failure recovery across tasks
// (requeueing, node exclusion) belongs to the scheduler, not here.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"syftbench/internal/config"
	"syftbench/internal/executor"
	"syftbench/internal/results"
	"syftbench/internal/solver"
	"syftbench/internal/suite"
	"syftbench/internal/taskmap"
)

// Runner drives benchmark execution for one task.
type Runner struct {
	cfg  *config.Config
	exec *executor.Runner
	log  *zap.Logger
}

// New creates a runner. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	execCfg := executor.Config{
		DefaultTimeout: cfg.Timeout(),
		MaxOutputBytes: cfg.Execution.MaxOutputBytes,
		PassEnv:        cfg.Execution.PassEnv,
	}
	return &Runner{
		cfg:  cfg,
		exec: executor.NewRunner(execCfg, log),
		log:  log,
	}
}

// ExecuteAssignment runs the full flow for one resolved task: collect the
// suite, take the assignment's shard, run every case, and write the
// task's CSV (plus the archive record when configured). The returned
// summary covers the shard's rows.
func (r *Runner) ExecuteAssignment(ctx context.Context, a taskmap.Assignment) (results.Summary, error) {
	sv, err := solver.ByName(r.cfg, a.Solver)
	if err != nil {
		return results.Summary{}, err
	}

	cases, err := suite.Collect(r.cfg.Suite.TestDir)
	if err != nil {
		return results.Summary{}, err
	}
	shard, err := suite.Shard(cases, a.Shard, a.Shards)
	if err != nil {
		return results.Summary{}, err
	}

	r.log.Info("running shard",
		zap.String("assignment", a.String()),
		zap.Int("cases", len(shard)),
		zap.Int("suite_size", len(cases)))

	started := time.Now()
	rows, err := r.runCases(ctx, sv, a.Mode, shard)
	if err != nil {
		return results.Summary{}, err
	}
	finished := time.Now()

	outPath := a.OutputPath(r.cfg.Results.Dir)
	if err := results.WriteCSV(outPath, rows); err != nil {
		return results.Summary{}, err
	}
	r.log.Info("wrote results", zap.String("path", outPath), zap.Int("rows", len(rows)))

	if r.cfg.Results.ArchivePath != "" {
		if err := r.archive(a, rows, started, finished); err != nil {
			// The CSV is the artifact of record; a failed archive write
			// must not fail the task.
			r.log.Warn("failed to archive run", zap.Error(err))
		}
	}

	return results.Summarize(rows), nil
}

func (r *Runner) archive(a taskmap.Assignment, rows []results.Row, started, finished time.Time) error {
	arch, err := results.OpenArchive(r.cfg.Results.ArchivePath)
	if err != nil {
		return err
	}
	defer arch.Close()
	_, err = arch.RecordRun(results.RunRecord{
		Solver:     string(a.Solver),
		Mode:       string(a.Mode),
		Shard:      a.Shard,
		Shards:     a.Shards,
		StartedAt:  started,
		FinishedAt: finished,
	}, rows)
	return err
}

// runCases executes the shard's cases with bounded parallelism. Workers
// default to 1: the scheduler already fans tasks out across nodes, and
// solver runtimes are only comparable when cases do not contend for the
// node.
func (r *Runner) runCases(ctx context.Context, sv solver.Solver, mode taskmap.Mode, cases []suite.Case) ([]results.Row, error) {
	workers := r.cfg.Execution.Workers
	if workers < 1 {
		workers = 1
	}

	rows := make([]results.Row, len(cases))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			row, err := r.runCase(gctx, sv, mode, c)
			if err != nil {
				return err
			}
			mu.Lock()
			rows[i] = row
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results.SortRows(rows)
	return rows, nil
}

// runCase stages and solves one case, rerunning it for the configured
// iteration count. Iterations must agree on the verdict; a disagreement
// is reported as inconsistent rather than trusting either answer.
func (r *Runner) runCase(ctx context.Context, sv solver.Solver, mode taskmap.Mode, c suite.Case) (results.Row, error) {
	row := results.Row{Test: c.Name()}

	staged, err := suite.Stage(c, sv.Name(), "", suite.Disregard(r.cfg.Suite.Disregard))
	if err != nil {
		return results.Row{}, fmt.Errorf("failed to stage %s: %w", c.Name(), err)
	}
	defer staged.Cleanup()

	if err := sv.Prepare(ctx, r.exec, staged.Input, staged.Part, mode); err != nil {
		if ctx.Err() != nil {
			return results.Row{}, ctx.Err()
		}
		r.log.Warn("case preparation failed",
			zap.String("case", c.Name()),
			zap.Error(err))
		row.Status = results.StatusUnknown
		return row, nil
	}

	cmd, err := sv.Command(staged.Input, staged.Part, mode)
	if err != nil {
		return results.Row{}, err
	}
	cmd.Dir = staged.Dir
	cmd.Timeout = r.cfg.Timeout()

	iterations := r.cfg.Suite.Iterations
	if iterations < 1 {
		iterations = 1
	}
	var verdicts []solver.Realizability
	var totalMS float64
	for iter := 0; iter < iterations; iter++ {
		res, err := r.exec.Run(ctx, cmd)
		if err != nil {
			return results.Row{}, fmt.Errorf("failed to run solver on %s: %w", c.Name(), err)
		}
		r.writeCaseLog(c, sv.Name(), iter, res)

		if res.Killed {
			// A kill from the run context being canceled (SIGTERM,
			// preemption) is not a case timeout; abort without writing
			// an artifact rather than fabricate timeout rows.
			if ctx.Err() != nil {
				return results.Row{}, ctx.Err()
			}
			row.Status = results.StatusTimeout
			return row, nil
		}
		if res.ExitCode != 0 {
			r.log.Debug("solver exited non-zero",
				zap.String("case", c.Name()),
				zap.Int("exit_code", res.ExitCode))
			row.Status = results.ErrorStatus(res.ExitCode)
			return row, nil
		}

		v := sv.ParseOutput(res.Output())
		if v.Result == solver.Unknown {
			r.log.Warn("could not parse solver output", zap.String("case", c.Name()))
			row.Status = results.StatusUnknown
			return row, nil
		}
		verdicts = append(verdicts, v.Result)
		totalMS += v.TimeMS
	}

	for _, v := range verdicts[1:] {
		if v != verdicts[0] {
			row.Status = results.StatusInconsistent
			return row, nil
		}
	}

	row.TimeSec = totalMS / float64(len(verdicts)) / 1000
	// A disregarded objective changes realizability, so the recorded
	// expectation no longer applies.
	if r.cfg.Suite.Disregard == "" && int(verdicts[0]) != c.Expected {
		row.Status = results.StatusFailed
	} else {
		row.Status = results.StatusPassed
	}
	return row, nil
}

// writeCaseLog saves the solver's output for one iteration when a log
// directory is configured.
func (r *Runner) writeCaseLog(c suite.Case, solverName string, iter int, res *executor.Result) {
	if r.cfg.Results.LogDir == "" {
		return
	}
	if err := os.MkdirAll(r.cfg.Results.LogDir, 0755); err != nil {
		r.log.Warn("failed to create log directory", zap.Error(err))
		return
	}
	stem := strings.TrimSuffix(filepath.Base(c.Formula), ".ltlf")
	name := fmt.Sprintf("%s_%s_iter%d.log", stem, solverName, iter)
	if err := os.WriteFile(filepath.Join(r.cfg.Results.LogDir, name), []byte(res.Output()), 0644); err != nil {
		r.log.Warn("failed to write case log", zap.Error(err))
	}
}
