package config

// SlurmConfig holds sbatch parameters. These are passed through to the
// scheduler unchanged; syftbench does not interpret them.
type SlurmConfig struct {
	// Partition is the cluster partition to submit to.
	Partition string `yaml:"partition,omitempty"`

	// Account for accounting, when the cluster requires one.
	Account string `yaml:"account,omitempty"`

	// TimeLimit in sbatch syntax (e.g. "30:00", "2-00:00:00").
	TimeLimit string `yaml:"time_limit"`

	// Memory per task (e.g. "8G").
	Memory string `yaml:"memory"`

	// ExcludeNodes are hosts to avoid. Shard counts and exclusion lists
	// used to be duplicated across script variants; keeping both here
	// makes the config file the single source.
	ExcludeNodes []string `yaml:"exclude_nodes,omitempty"`

	// JobName defaults to "syftbench".
	JobName string `yaml:"job_name,omitempty"`
}
