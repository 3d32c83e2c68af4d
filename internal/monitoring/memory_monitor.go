package monitoring

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// Memory returns physical memory totals in bytes.
func (p *SystemProvider) Memory(ctx context.Context) (MemoryStat, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, err
	}
	return MemoryStat{Total: v.Total, Used: v.Used}, nil
}
