package monitoring

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Processes lists running processes with their CPU and memory share.
// Processes that vanish or hide their name mid-scan are skipped.
func (p *SystemProvider) Processes(ctx context.Context) ([]ProcessStat, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ProcessStat, 0, len(procs))
	for _, proc := range procs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}

		st := ProcessStat{PID: proc.Pid, Name: name}
		if cpuPercent, err := proc.CPUPercentWithContext(ctx); err == nil {
			st.CPUPercent = ptr(cpuPercent)
		}
		if memPercent, err := proc.MemoryPercentWithContext(ctx); err == nil {
			st.MemPercent = ptr(float64(memPercent))
		}
		result = append(result, st)
	}
	return result, nil
}
