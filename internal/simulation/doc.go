// Package simulation implements the stochastic energy-quantum allocation
// process of the canonical-ensemble toy model and the occupancy histograms it
// produces.
//
// A simulation places TotalEnergy indivisible quanta, one at a time, on
// particles chosen uniformly among those still below the level cap. The
// result is compressed into a Histogram mapping level to degeneracy, whose
// particle count and energy equal the request exactly.
package simulation
