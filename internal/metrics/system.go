package metrics

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemStats is a snapshot of host-wide resource usage.
type SystemStats struct {
	CPUPercent     float64 // 0..100
	MemPercent     float64 // 0..100
	AvailableBytes uint64
}

// SampleSystem collects host CPU and memory usage. CPU is measured since
// the previous call. Fields are left at zero when the host refuses to
// report them.
func SampleSystem() SystemStats {
	var s SystemStats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
		s.AvailableBytes = vmem.Available
	}
	return s
}
