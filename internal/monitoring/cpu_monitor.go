package monitoring

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPULoad returns the aggregate CPU usage over the configured sample window.
func (p *SystemProvider) CPULoad(ctx context.Context) (CPULoad, error) {
	percentages, err := cpu.PercentWithContext(ctx, p.config.CPUSampleInterval, false)
	if err != nil {
		return CPULoad{}, err
	}
	if len(percentages) == 0 {
		return CPULoad{}, fmt.Errorf("no cpu samples returned")
	}
	return CPULoad{CurrentLoad: percentages[0]}, nil
}
