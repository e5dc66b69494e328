package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SolverConfig names one external Syft build.
type SolverConfig struct {
	// Name selects the adapter ("lucas" or "christian") and appears in
	// result file names.
	Name string `yaml:"name"`

	// Path is the solver binary. A leading ~ is expanded at load time.
	Path string `yaml:"path"`
}

// ResolvedPath expands ~ and returns an absolute path to the binary.
func (s SolverConfig) ResolvedPath() (string, error) {
	path := s.Path
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand ~ in solver path %q: %w", s.Path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve solver path %q: %w", s.Path, err)
	}
	return abs, nil
}

// Solver looks up a solver entry by name.
func (c *Config) Solver(name string) (SolverConfig, error) {
	for _, s := range c.Solvers {
		if s.Name == name {
			return s, nil
		}
	}
	return SolverConfig{}, fmt.Errorf("solver %q not configured", name)
}
