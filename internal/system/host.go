package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostProfile summarizes the machine a preview or render runs on.
type HostProfile struct {
	Platform        string
	PhysicalCores   int
	LogicalCores    int
	TotalMemory     uint64
	AvailableMemory uint64
}

func ProbeHost(ctx context.Context) (HostProfile, error) {
	var p HostProfile

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return p, fmt.Errorf("host info: %w", err)
	}
	p.Platform = info.Platform + " " + info.PlatformVersion

	if p.PhysicalCores, err = cpu.CountsWithContext(ctx, false); err != nil {
		return p, fmt.Errorf("cpu counts: %w", err)
	}
	if p.LogicalCores, err = cpu.CountsWithContext(ctx, true); err != nil {
		return p, fmt.Errorf("cpu counts: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return p, fmt.Errorf("memory: %w", err)
	}
	p.TotalMemory = vm.Total
	p.AvailableMemory = vm.Available
	return p, nil
}

// FrameSetBytes estimates the decoded RGBA footprint of n frames of w x h.
func FrameSetBytes(n, w, h int) uint64 {
	return uint64(n) * uint64(w) * uint64(h) * 4
}

// Fits reports whether a decoded frame set of the given size leaves at least
// half of the available memory free.
func (p HostProfile) Fits(frameSetBytes uint64) bool {
	return frameSetBytes <= p.AvailableMemory/2
}

func (p HostProfile) String() string {
	return fmt.Sprintf("%s | cores %d/%d | memory %d/%d MiB available",
		p.Platform, p.PhysicalCores, p.LogicalCores, p.AvailableMemory>>20, p.TotalMemory>>20)
}
