package simulation

import (
	"maps"
	"slices"
)

// Histogram maps an energy level to its degeneracy, the number of particles
// at that level. Levels with zero particles are never stored.
type Histogram map[int]int

// FromLevels compresses a per-particle level assignment into a Histogram.
func FromLevels(levels []int) Histogram {
	h := make(Histogram)
	for _, level := range levels {
		h[level]++
	}
	return h
}

// Particles returns the total particle count, the sum of all degeneracies.
func (h Histogram) Particles() int {
	total := 0
	for _, count := range h {
		total += count
	}
	return total
}

// Energy returns the total energy, the sum of level times degeneracy.
func (h Histogram) Energy() int {
	total := 0
	for level, count := range h {
		total += level * count
	}
	return total
}

// Levels returns the occupied levels in ascending order.
func (h Histogram) Levels() []int {
	return slices.Sorted(maps.Keys(h))
}

// Merge sums degeneracies per level across all inputs. Levels absent from an
// input contribute nothing. The result does not depend on input order and
// the inputs are left untouched.
func Merge(histograms ...Histogram) Histogram {
	out := make(Histogram)
	for _, h := range histograms {
		for level, count := range h {
			if count > 0 {
				out[level] += count
			}
		}
	}
	return out
}
