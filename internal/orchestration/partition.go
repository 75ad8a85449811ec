package orchestration

import (
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

// ShardSpec is the share of a simulation handed to one worker.
type ShardSpec struct {
	Index int
	simulation.Params
}

// Partition splits p into numWorkers shards. Every shard receives the floor
// share of particles and quanta; the last shard also absorbs both
// remainders, so the shard totals add up to p exactly. The capacity is
// copied unchanged.
func Partition(p simulation.Params, numWorkers int) ([]ShardSpec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if numWorkers < 1 {
		return nil, apperrors.NewValidationError("workers", "must be at least 1, got %d", numWorkers)
	}
	if p.Particles < numWorkers {
		return nil, apperrors.NewValidationError("workers",
			"cannot exceed the particle count (%d workers for %d particles)", numWorkers, p.Particles)
	}

	nShare := p.Particles / numWorkers
	eShare := p.TotalEnergy / numWorkers
	shards := make([]ShardSpec, numWorkers)
	for i := range shards {
		shards[i] = ShardSpec{
			Index: i,
			Params: simulation.Params{
				Particles:   nShare,
				TotalEnergy: eShare,
				Capacity:    p.Capacity,
			},
		}
	}
	last := &shards[numWorkers-1]
	last.Particles += p.Particles - nShare*numWorkers
	last.TotalEnergy += p.TotalEnergy - eShare*numWorkers
	return shards, nil
}
