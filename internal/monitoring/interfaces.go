package monitoring

import (
	"context"
	"time"
)

// Provider fetches raw metric groups from the host. Each method is
// called independently and may fail on its own.
type Provider interface {
	CPULoad(ctx context.Context) (CPULoad, error)
	Memory(ctx context.Context) (MemoryStat, error)
	Time(ctx context.Context) (TimeInfo, error)
	OSInfo(ctx context.Context) (OSInfo, error)
	Battery(ctx context.Context) (BatteryStat, error)
	Graphics(ctx context.Context) (Graphics, error)
	Filesystems(ctx context.Context) ([]Filesystem, error)
	NetworkStats(ctx context.Context) ([]NetworkStat, error)
	Processes(ctx context.Context) ([]ProcessStat, error)
}

// MonitoringConfig holds configuration for the monitoring components.
type MonitoringConfig struct {
	// IncludeGraphics enables GPU collection and the GPU block.
	IncludeGraphics bool

	// IncludeProcesses enables process collection and the top-processes table.
	IncludeProcesses bool

	// CPUSampleInterval is the window cpu-load is measured over.
	// Zero compares against the previous call.
	CPUSampleInterval time.Duration

	// GPUCacheDuration is how long the GPU inventory is reused.
	GPUCacheDuration time.Duration

	// CollectInterval is the period of scheduled passes; zero disables them.
	CollectInterval time.Duration
}

// DefaultMonitoringConfig returns a default monitoring configuration
func DefaultMonitoringConfig() *MonitoringConfig {
	return &MonitoringConfig{
		IncludeGraphics:   true,
		IncludeProcesses:  true,
		CPUSampleInterval: 500 * time.Millisecond,
		GPUCacheDuration:  600 * time.Second,
	}
}

// BuildOptions derives the builder flags from the configuration.
func (c *MonitoringConfig) BuildOptions() BuildOptions {
	return BuildOptions{
		IncludeGraphics:  c.IncludeGraphics,
		IncludeProcesses: c.IncludeProcesses,
	}
}
