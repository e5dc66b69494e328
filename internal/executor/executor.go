// Package executor runs external solver binaries with timeout enforcement
// and bounded output capture. It reports how a process ended but never
// interprets solver output; downstream exit codes are surfaced unchanged.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Command describes one external process invocation.
type Command struct {
	// Binary is the executable to run.
	Binary string

	// Args are the command-line arguments.
	Args []string

	// Dir is the working directory. Empty means the runner's default.
	Dir string

	// Env holds extra KEY=VALUE entries merged with the passthrough set.
	Env []string

	// Stdin is fed to the process when non-empty.
	Stdin string

	// Timeout caps wall-clock execution time. Zero means the runner's
	// default.
	Timeout time.Duration

	// MaxOutputBytes caps captured stdout and stderr individually.
	// Zero means the runner's default.
	MaxOutputBytes int64
}

// String renders the command for logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Result captures how a process ran. A non-zero exit code is a completed
// run, not an infrastructure failure: the solver's exit status is recorded
// and passed through for the caller to classify.
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time

	// Killed is set when the process was terminated by the runner,
	// with KillReason explaining why (timeout or cancellation).
	Killed     bool
	KillReason string

	// Truncated is set when output exceeded the configured cap.
	Truncated bool
}

// Output returns stdout and stderr joined for parsing; solver builds write
// the verdict to either stream depending on the variant.
func (r *Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Config holds runner defaults applied to commands that leave the
// corresponding field zero.
type Config struct {
	DefaultTimeout time.Duration
	MaxOutputBytes int64
	WorkDir        string

	// PassEnv lists environment variables forwarded from the harness
	// process to the solver.
	PassEnv []string
}

// DefaultConfig returns the defaults used when no execution config is set.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 25 * time.Minute,
		MaxOutputBytes: 10 * 1024 * 1024,
		WorkDir:        ".",
		PassEnv:        []string{"PATH", "HOME", "LD_LIBRARY_PATH", "TMPDIR", "LANG", "LC_ALL"},
	}
}

// Runner executes commands on the host.
type Runner struct {
	cfg Config
	log *zap.Logger
}

// NewRunner creates a runner with the given config. A nil logger disables
// logging.
func NewRunner(cfg Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultConfig().MaxOutputBytes
	}
	return &Runner{cfg: cfg, log: log}
}

// Run executes cmd and waits for it to finish. The returned error is
// reserved for infrastructure failures (binary missing, start failure);
// timeouts and non-zero exits are reported through the Result.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("executor: binary is required")
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}
	maxOutput := cmd.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = r.cfg.MaxOutputBytes
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	// Kill the whole process group on timeout or cancellation: a solver
	// that forks helpers would otherwise keep the output pipes open and
	// block Wait long past the deadline. WaitDelay caps the wait even
	// when something outside the group inherited a pipe.
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	proc.Cancel = func() error {
		err := syscall.Kill(-proc.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
	proc.WaitDelay = 10 * time.Second
	proc.Dir = cmd.Dir
	if proc.Dir == "" {
		proc.Dir = r.cfg.WorkDir
	}
	proc.Env = r.buildEnv(cmd.Env)
	if cmd.Stdin != "" {
		proc.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	outLimited := &limitedWriter{w: &stdout, max: maxOutput}
	errLimited := &limitedWriter{w: &stderr, max: maxOutput}
	proc.Stdout = outLimited
	proc.Stderr = errLimited

	r.log.Debug("executing command",
		zap.String("command", cmd.String()),
		zap.String("dir", proc.Dir),
		zap.Duration("timeout", timeout))

	res := &Result{ExitCode: -1, StartedAt: time.Now()}
	err := proc.Run()
	res.FinishedAt = time.Now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Truncated = outLimited.truncated || errLimited.truncated

	switch {
	case execCtx.Err() == context.DeadlineExceeded:
		res.Killed = true
		res.KillReason = fmt.Sprintf("timeout after %s", timeout)
		r.log.Warn("command killed",
			zap.String("binary", cmd.Binary),
			zap.Duration("timeout", timeout))
	case execCtx.Err() == context.Canceled:
		res.Killed = true
		res.KillReason = "canceled"
	case err == nil:
		res.ExitCode = 0
	default:
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("executor: %s: %w", cmd.Binary, err)
		}
		res.ExitCode = exitErr.ExitCode()
		r.log.Debug("command exited non-zero",
			zap.String("binary", cmd.Binary),
			zap.Int("exit_code", res.ExitCode))
	}

	if res.Truncated {
		r.log.Warn("command output truncated",
			zap.String("binary", cmd.Binary),
			zap.Int64("cap_bytes", maxOutput))
	}

	return res, nil
}

// buildEnv assembles the child environment from the passthrough allowlist
// plus command-specific entries.
func (r *Runner) buildEnv(extra []string) []string {
	env := make([]string, 0, len(r.cfg.PassEnv)+len(extra))
	for _, key := range r.cfg.PassEnv {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}
	return append(env, extra...)
}

// limitedWriter caps the bytes written through it, discarding the rest.
// Writes always report full length so the child never sees a short write.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	if remaining := lw.max - lw.written; int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
