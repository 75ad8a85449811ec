package metrics

import (
	"runtime"

	"github.com/agbru/canonsim/internal/simulation"
)

// MemorySnapshot holds a point-in-time reading of the Go runtime.
type MemorySnapshot struct {
	HeapAlloc    uint64
	HeapSys      uint64
	Sys          uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// ReadMemory reads the current runtime memory statistics.
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// Per-particle working set of Allocate: one int level counter, plus one
// int32 slot in the eligible index when the capacity is bounded.
const (
	bytesPerLevel    = 8
	bytesPerEligible = 4
)

// EstimateRunMemory returns the peak bytes the allocation loops of a run
// hold at once. Shards run concurrently, so their working sets add up to
// that of the whole particle population.
func EstimateRunMemory(p simulation.Params) uint64 {
	if p.Particles <= 0 {
		return 0
	}
	per := uint64(bytesPerLevel)
	if p.Capacity.Bounded() {
		per += bytesPerEligible
	}
	return uint64(p.Particles) * per
}
