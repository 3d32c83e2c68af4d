package monitoring

import (
	"go.uber.org/zap"
)

// SystemProvider reads raw metric groups from the local host.
type SystemProvider struct {
	config *MonitoringConfig
	logger *zap.Logger
	gpu    *gpuSampler
	net    *netSampler
}

// Compile-time guard.
var _ Provider = (*SystemProvider)(nil)

// NewSystemProvider creates a provider for the local host.
func NewSystemProvider(config *MonitoringConfig, logger *zap.Logger) *SystemProvider {
	if config == nil {
		config = DefaultMonitoringConfig()
	}
	return &SystemProvider{
		config: config,
		logger: logger,
		gpu:    newGPUSampler(config.GPUCacheDuration, logger),
		net:    newNetSampler(),
	}
}
