package simulation

import "math/rand/v2"

// NewRand returns a deterministic generator for the given seed and stream.
// Distinct streams with the same seed produce independent sequences, which
// is how shards of one run get their own random source.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// RandomSeed returns a seed drawn from the runtime's entropy-seeded source.
func RandomSeed() uint64 {
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}
