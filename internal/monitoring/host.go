package monitoring

import (
	"context"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const cpuSampleWindow = 200 * time.Millisecond

// HostStats samples CPU, memory and uptime of the current machine.
func HostStats(ctx context.Context) (models.HostStats, error) {
	var stats models.HostStats

	percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return stats, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemoryPercent = vm.UsedPercent
	stats.MemoryUsedMB = vm.Used / 1024 / 1024

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.UptimeSeconds = uptime
	return stats, nil
}
