package simulation

import (
	"context"
	"math"
	"math/rand/v2"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/progress"
)

const (
	// CancelCheckInterval is the number of allocation steps between two
	// context checks.
	CancelCheckInterval = 1024
	// progressReports is the approximate number of progress callbacks per run.
	progressReports = 100
)

// Params describes one allocation problem: how many particles share how
// many quanta, under which level cap.
type Params struct {
	Particles   int
	TotalEnergy int
	Capacity    Capacity
}

// Validate checks the preconditions of Allocate.
func (p Params) Validate() error {
	if p.Particles <= 0 {
		return apperrors.NewValidationError("particles", "must be positive, got %d", p.Particles)
	}
	if p.Particles > math.MaxInt32 {
		return apperrors.NewValidationError("particles", "must not exceed %d, got %d", math.MaxInt32, p.Particles)
	}
	if p.TotalEnergy < 0 {
		return apperrors.NewValidationError("total_energy", "must be non-negative, got %d", p.TotalEnergy)
	}
	return p.Capacity.Validate()
}

// Feasible reports whether the energy fits under the level cap, i.e.
// TotalEnergy <= Particles * (levels-1). Unbounded requests are always feasible.
func (p Params) Feasible() bool {
	maxLevel, bounded := p.Capacity.MaxLevel()
	if !bounded {
		return true
	}
	return int64(p.TotalEnergy) <= int64(p.Particles)*int64(maxLevel)
}

// Simulate runs Allocate with a background context and no progress reporting.
func Simulate(p Params, rng *rand.Rand) (Histogram, error) {
	return Allocate(context.Background(), p, rng, nil)
}

// Allocate places p.TotalEnergy quanta one at a time, each on a particle
// drawn uniformly among those whose level is below the cap, and returns the
// resulting occupancy histogram.
//
// Eligible particles are tracked in an index slice: a particle reaching the
// cap is swap-removed in O(1), so every step costs one random draw. When the
// slice empties before all quanta are placed, Allocate fails with a
// SaturationError. The context is checked every CancelCheckInterval steps.
// A nil rng uses a randomly seeded generator; a nil report disables progress.
func Allocate(ctx context.Context, p Params, rng *rand.Rand, report progress.ProgressCallback) (Histogram, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(RandomSeed(), 0)
	}
	if report == nil {
		report = progress.Nop
	}

	levels := make([]int, p.Particles)
	maxLevel, bounded := p.Capacity.MaxLevel()

	var eligible []int32
	if bounded && maxLevel > 0 {
		eligible = make([]int32, p.Particles)
		for i := range eligible {
			eligible[i] = int32(i)
		}
	}

	reportEvery := max(p.TotalEnergy/progressReports, 1)
	for step := 0; step < p.TotalEnergy; step++ {
		if step%CancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if step%reportEvery == 0 {
			report(float64(step) / float64(p.TotalEnergy))
		}

		if !bounded {
			levels[rng.IntN(p.Particles)]++
			continue
		}

		if len(eligible) == 0 {
			return nil, apperrors.SaturationError{
				Placed:    step,
				Total:     p.TotalEnergy,
				Particles: p.Particles,
				MaxLevel:  maxLevel,
			}
		}
		k := rng.IntN(len(eligible))
		idx := eligible[k]
		levels[idx]++
		if levels[idx] >= maxLevel {
			last := len(eligible) - 1
			eligible[k] = eligible[last]
			eligible = eligible[:last]
		}
	}
	report(1.0)

	return FromLevels(levels), nil
}
