// Package config defines the application configuration, its command-line
// flags and environment overrides, and the YAML batch sweep file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "CANONSIM_"

// Defaults for a single simulation run.
const (
	DefaultParticles   = 1000
	DefaultTotalEnergy = 1000
	DefaultTimeout     = 5 * time.Minute
	DefaultLogLevel    = "info"
)

// AppConfig aggregates the parameters of a simulation run and the output
// preferences of the CLI.
type AppConfig struct {
	Particles   int
	TotalEnergy int
	// Levels is the number of allowed energy levels; 0 means unbounded.
	Levels int
	// Workers is the shard count; 0 selects one automatically.
	Workers      int
	Seed         uint64
	Timeout      time.Duration
	ShardTimeout time.Duration
	Quiet        bool
	Verbose      bool
	NoColor      bool
	JSON         bool
	LogLevel     string
}

// Default returns the configuration used when nothing is specified.
func Default() AppConfig {
	return AppConfig{
		Particles:   DefaultParticles,
		TotalEnergy: DefaultTotalEnergy,
		Timeout:     DefaultTimeout,
		LogLevel:    DefaultLogLevel,
	}
}

// Capacity converts the Levels field into a simulation capacity.
func (c AppConfig) Capacity() simulation.Capacity {
	return simulation.FromLevelCount(c.Levels)
}

// Params returns the allocation problem described by the configuration.
func (c AppConfig) Params() simulation.Params {
	return simulation.Params{
		Particles:   c.Particles,
		TotalEnergy: c.TotalEnergy,
		Capacity:    c.Capacity(),
	}
}

// Validate checks the configuration for semantic errors.
func (c AppConfig) Validate() error {
	if c.Particles <= 0 {
		return apperrors.NewConfigError("particle count must be positive, got %d", c.Particles)
	}
	if c.TotalEnergy < 0 {
		return apperrors.NewConfigError("total energy must be non-negative, got %d", c.TotalEnergy)
	}
	if c.Levels < 0 {
		return apperrors.NewConfigError("levels must be 0 (unbounded) or positive, got %d", c.Levels)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers must be non-negative, got %d", c.Workers)
	}
	if c.Workers > c.Particles {
		return apperrors.NewConfigError("workers (%d) cannot exceed the particle count (%d)", c.Workers, c.Particles)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.ShardTimeout < 0 {
		return apperrors.NewConfigError("shard timeout must be non-negative, got %s", c.ShardTimeout)
	}
	if c.Quiet && c.Verbose {
		return apperrors.NewConfigError("--quiet and --verbose are mutually exclusive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return apperrors.NewConfigError("unknown log level %q", c.LogLevel)
	}
	return nil
}

// BindFlags registers the run flags on fs, writing into cfg.
func BindFlags(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.IntVarP(&cfg.Particles, "particles", "n", cfg.Particles, "number of particles")
	fs.IntVarP(&cfg.TotalEnergy, "energy", "e", cfg.TotalEnergy, "total number of energy quanta")
	fs.IntVarP(&cfg.Levels, "levels", "r", cfg.Levels, "number of energy levels (0 = unbounded)")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of parallel shards (0 = auto)")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 = random)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall run timeout")
	fs.DurationVar(&cfg.ShardTimeout, "shard-timeout", cfg.ShardTimeout, "per-shard timeout (0 = none)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "print only the fit summary")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "print per-shard details")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable coloured output")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "emit a JSON document instead of text")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error, disabled)")
}

// String summarises the simulation parameters.
func (c AppConfig) String() string {
	return fmt.Sprintf("N=%d E=%d levels=%s workers=%d", c.Particles, c.TotalEnergy, c.Capacity(), c.Workers)
}
