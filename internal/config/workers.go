package config

import "runtime"

// minParticlesPerShard keeps shards from becoming so small that per-shard
// equilibria dominate the merged histogram.
const minParticlesPerShard = 1000

// ResolveWorkers fills in an automatic worker count when cfg.Workers is 0:
// one shard per CPU, reduced so that every shard keeps at least
// minParticlesPerShard particles. Explicit values are preserved.
func ResolveWorkers(cfg AppConfig) AppConfig {
	if cfg.Workers != 0 {
		return cfg
	}
	cfg.Workers = EstimateWorkers(cfg.Particles, runtime.NumCPU())
	return cfg
}

// EstimateWorkers returns a shard count for the given particle count and
// number of CPUs. The result is always within [1, particles].
func EstimateWorkers(particles, numCPU int) int {
	if particles <= 0 {
		return 1
	}
	workers := max(numCPU, 1)
	workers = min(workers, particles/minParticlesPerShard)
	return max(workers, 1)
}
