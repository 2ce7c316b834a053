// Package sysprobe answers the one environment question the classifier
// core needs at startup: how much memory is actually available, so the
// Predictor Host's auto-mode backend selection (spec.md §4.5) has a real
// number instead of a guess. Grounded on gopsutil/v4, already pulled into
// this team's module graph by testcontainers-go for host resource
// detection, now used directly for the same purpose.
package sysprobe

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// AvailableMemoryBytes reports the host's currently available memory, per
// gopsutil's cross-platform virtual-memory stat.
func AvailableMemoryBytes() (uint64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("probe available memory: %w", err)
	}
	return stat.Available, nil
}
