// Package config loads the layered syftbench configuration: built-in
// defaults, then the YAML config file, then a .env file, then
// SYFTBENCH_* environment overrides. Cluster-specific values (solver
// paths, excluded nodes) live in the file; per-machine paths can stay
// in the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "syftbench.yaml"

// Config holds all syftbench configuration.
type Config struct {
	// Solver binaries under test
	Solvers []SolverConfig `yaml:"solvers"`

	// Benchmark suite location and partitioning
	Suite SuiteConfig `yaml:"suite"`

	// External process execution
	Execution ExecutionConfig `yaml:"execution"`

	// SLURM submission parameters (passed through unchanged)
	Slurm SlurmConfig `yaml:"slurm"`

	// Result artifacts
	Results ResultsConfig `yaml:"results"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SuiteConfig configures benchmark collection and partitioning.
type SuiteConfig struct {
	// TestDir is the root of the benchmark tree.
	TestDir string `yaml:"test_dir"`

	// Shards is the number of shards per (solver, mode) combination.
	Shards int `yaml:"shards"`

	// Iterations reruns each case for comparability; results must agree.
	Iterations int `yaml:"iterations"`

	// Disregard replaces the "main" or "backup" formula line with a
	// tautology before solving. Empty runs the case unmodified.
	Disregard string `yaml:"disregard,omitempty"`
}

// ResultsConfig configures result artifacts.
type ResultsConfig struct {
	// Dir receives the per-task CSV files.
	Dir string `yaml:"dir"`

	// LogDir, when set, receives per-case solver output logs.
	LogDir string `yaml:"log_dir,omitempty"`

	// ArchivePath, when set, enables the SQLite run archive.
	ArchivePath string `yaml:"archive_path,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Solvers: []SolverConfig{
			{Name: "lucas", Path: "~/lucas/Syft/build/bin/Syft"},
			{Name: "christian", Path: "~/christian/Syft/build/bin/Syft"},
		},
		Suite: SuiteConfig{
			TestDir:    "tests",
			Shards:     16,
			Iterations: 1,
		},
		Execution: ExecutionConfig{
			Timeout:        "25m",
			Workers:        1,
			MaxOutputBytes: 10 * 1024 * 1024,
			PassEnv:        []string{"PATH", "HOME", "LD_LIBRARY_PATH", "TMPDIR", "LANG", "LC_ALL"},
		},
		Slurm: SlurmConfig{
			TimeLimit: "30:00",
			Memory:    "8G",
		},
		Results: ResultsConfig{
			Dir: "results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, layering .env and
// environment overrides on top. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env sits next to the config file; absence is fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies SYFTBENCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYFTBENCH_TEST_DIR"); v != "" {
		c.Suite.TestDir = v
	}
	if v := os.Getenv("SYFTBENCH_SHARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Suite.Shards = n
		}
	}
	if v := os.Getenv("SYFTBENCH_RESULTS_DIR"); v != "" {
		c.Results.Dir = v
	}
	if v := os.Getenv("SYFTBENCH_TIMEOUT"); v != "" {
		c.Execution.Timeout = v
	}
	if v := os.Getenv("SYFTBENCH_LUCAS_PATH"); v != "" {
		c.setSolverPath("lucas", v)
	}
	if v := os.Getenv("SYFTBENCH_CHRISTIAN_PATH"); v != "" {
		c.setSolverPath("christian", v)
	}
	if v := os.Getenv("SYFTBENCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) setSolverPath(name, path string) {
	for i := range c.Solvers {
		if c.Solvers[i].Name == name {
			c.Solvers[i].Path = path
			return
		}
	}
	c.Solvers = append(c.Solvers, SolverConfig{Name: name, Path: path})
}

// Timeout returns the per-case solver timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 25 * time.Minute
	}
	return d
}

// Validate checks the configuration for values no run can work with.
func (c *Config) Validate() error {
	if len(c.Solvers) == 0 {
		return fmt.Errorf("no solvers configured")
	}
	seen := make(map[string]bool)
	for _, s := range c.Solvers {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("solver entries need both name and path")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate solver name %q", s.Name)
		}
		seen[s.Name] = true
	}
	if c.Suite.Shards < 1 {
		return fmt.Errorf("suite.shards must be positive, got %d", c.Suite.Shards)
	}
	if c.Suite.Iterations < 1 {
		return fmt.Errorf("suite.iterations must be positive, got %d", c.Suite.Iterations)
	}
	if d := c.Suite.Disregard; d != "" && d != "main" && d != "backup" {
		return fmt.Errorf("suite.disregard must be empty, \"main\" or \"backup\", got %q", d)
	}
	if c.Results.Dir == "" {
		return fmt.Errorf("results.dir must be set")
	}
	return nil
}
