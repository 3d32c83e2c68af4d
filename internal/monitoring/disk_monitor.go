package monitoring

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"
)

// Filesystems returns usage for every physical partition in mount order.
// Partitions whose usage cannot be read are listed with an unknown Use.
func (p *SystemProvider) Filesystems(ctx context.Context) ([]Filesystem, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	result := make([]Filesystem, 0, len(partitions))
	for _, part := range partitions {
		fs := Filesystem{FS: part.Device, Mount: part.Mountpoint}

		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			p.logger.Debug("disk usage unavailable",
				zap.String("mount", part.Mountpoint),
				zap.Error(err),
			)
		} else {
			fs.Size = usage.Total
			fs.Used = usage.Used
			fs.Use = ptr(usage.UsedPercent)
		}
		result = append(result, fs)
	}
	return result, nil
}
