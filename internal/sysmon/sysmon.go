// Package sysmon samples system-wide CPU and memory usage around a
// reduction, which shows how much of the machine the fork/join pool kept
// busy.
package sysmon

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// BusyCoreThreshold is the utilization above which a core counts as busy.
const BusyCoreThreshold = 50.0

// Stats holds system-wide resource usage over an interval.
type Stats struct {
	CPUPercent float64   // 0.0 .. 100.0, all cores
	PerCPU     []float64 // 0.0 .. 100.0 per logical core
	MemPercent float64   // 0.0 .. 100.0, at the end of the interval
}

// BusyCores counts the cores whose utilization exceeded threshold.
func (s Stats) BusyCores(threshold float64) int {
	n := 0
	for _, p := range s.PerCPU {
		if p > threshold {
			n++
		}
	}
	return n
}

// Baseline marks the start of a measured interval. The next Sample reports
// utilization since this call.
func Baseline() {
	_, _ = cpu.Percent(0, false)
	_, _ = cpu.Percent(0, true)
}

// Sample collects CPU usage since the previous Baseline or Sample call and
// the current memory usage. Fields are left at zero on error.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = clamp(pcts[0])
	}
	if pcts, err := cpu.Percent(0, true); err == nil {
		s.PerCPU = make([]float64, len(pcts))
		for i, p := range pcts {
			s.PerCPU[i] = clamp(p)
		}
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = clamp(vmem.UsedPercent)
	}
	return s
}

func clamp(p float64) float64 {
	return min(max(p, 0), 100)
}
