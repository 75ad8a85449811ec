package config

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

// DefaultCSVPath is the CSV file a batch sweep appends to by default.
const DefaultCSVPath = "raw_canonical_sim.csv"

// BatchConfig describes a sweep over total energies with repeated trials.
type BatchConfig struct {
	Particles     int    `yaml:"particles"`
	TotalEnergies []int  `yaml:"total_energies"`
	Trials        int    `yaml:"trials"`
	Workers       int    `yaml:"workers"`
	Levels        int    `yaml:"levels"`
	Output        string `yaml:"output"`
	Database      string `yaml:"database"`
	Seed          uint64 `yaml:"seed"`
}

// DefaultBatchConfig returns the standard sweep.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Particles: 10_000_000,
		TotalEnergies: []int{
			10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 7500,
			10000, 25000, 50000, 75000, 100000,
		},
		Trials:  2,
		Workers: 10,
		Output:  DefaultCSVPath,
	}
}

// LoadBatchConfig reads a YAML sweep file. Keys absent from the file keep
// their DefaultBatchConfig values.
func LoadBatchConfig(path string) (BatchConfig, error) {
	cfg := DefaultBatchConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperrors.NewConfigError("reading batch config: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperrors.NewConfigError("parsing batch config %s: %v", path, err)
	}
	return cfg, cfg.Validate()
}

// Capacity converts the Levels field into a simulation capacity.
func (b BatchConfig) Capacity() simulation.Capacity {
	return simulation.FromLevelCount(b.Levels)
}

// Validate checks the sweep for semantic errors.
func (b BatchConfig) Validate() error {
	switch {
	case b.Particles <= 0:
		return apperrors.NewConfigError("batch particles must be positive, got %d", b.Particles)
	case len(b.TotalEnergies) == 0:
		return apperrors.NewConfigError("batch needs at least one total energy")
	case b.Trials < 1:
		return apperrors.NewConfigError("batch trials must be at least 1, got %d", b.Trials)
	case b.Workers < 1:
		return apperrors.NewConfigError("batch workers must be at least 1, got %d", b.Workers)
	case b.Workers > b.Particles:
		return apperrors.NewConfigError("batch workers (%d) cannot exceed particles (%d)", b.Workers, b.Particles)
	case b.Levels < 0:
		return apperrors.NewConfigError("batch levels must be 0 (unbounded) or positive, got %d", b.Levels)
	case b.Output == "":
		return apperrors.NewConfigError("batch output path must not be empty")
	}
	for _, e := range b.TotalEnergies {
		if e < 0 {
			return apperrors.NewConfigError("batch total energy must be non-negative, got %d", e)
		}
	}
	return nil
}
