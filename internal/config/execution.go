package config

// ExecutionConfig configures how solver processes are run.
type ExecutionConfig struct {
	// Timeout is the per-case wall-clock limit (Go duration string).
	Timeout string `yaml:"timeout"`

	// Workers bounds in-task parallelism. SLURM already parallelizes
	// across tasks, so the default is 1.
	Workers int `yaml:"workers"`

	// MaxOutputBytes caps captured solver output per stream.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// PassEnv lists environment variables forwarded to the solver.
	PassEnv []string `yaml:"pass_env"`
}
