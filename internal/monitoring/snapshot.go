package monitoring

import (
	"math"
	"time"
)

// NotAvailable is the placeholder used for unknown string fields.
const NotAvailable = "N/A"

const bytesPerMB = 1024 * 1024

// BuildOptions toggles the optional metric blocks.
type BuildOptions struct {
	IncludeGraphics  bool
	IncludeProcesses bool
}

// ProcessEntry is one row of the top-processes table.
type ProcessEntry struct {
	PID        int32  `json:"pid"`
	Name       string `json:"name"`
	CPUPercent string `json:"cpuPercent"`
	MemPercent string `json:"memPercent"`
}

// Snapshot is the flat, display-ready aggregate of one collection pass.
// Every field is always serialised; unknown numbers encode as null and
// unknown strings as "N/A". A Snapshot is never modified after it has
// been stored.
type Snapshot struct {
	CPULoadPercent *float64 `json:"cpuLoadPercent"`

	TotalRAMMB     int64    `json:"totalRamMB"`
	UsedRAMMB      int64    `json:"usedRamMB"`
	UsedRAMPercent *float64 `json:"usedRamPercent"`

	UptimeHours float64 `json:"uptimeHours"`

	OSPlatform string `json:"osPlatform"`
	OSDistro   string `json:"osDistro"`
	OSRelease  string `json:"osRelease"`

	HasBattery           bool     `json:"hasBattery"`
	BatteryPercent       *float64 `json:"batteryPercent"`
	IsCharging           *bool    `json:"isCharging"`
	TimeRemainingMinutes *float64 `json:"timeRemainingMinutes"`
	BatteryHealthPercent *float64 `json:"batteryHealthPercent"`

	GPUName        string   `json:"gpuName"`
	GPULoadPercent *float64 `json:"gpuLoadPercent"`
	GPUTempC       *float64 `json:"gpuTempC"`

	DiskName       string   `json:"diskName"`
	DiskUsePercent *float64 `json:"diskUsePercent"`

	NetIface string   `json:"netIface"`
	NetRxKBs *float64 `json:"netRxKBs"`
	NetTxKBs *float64 `json:"netTxKBs"`

	TopProcesses []ProcessEntry `json:"topProcesses"`

	CollectedAt  time.Time `json:"collectedAt"`
	CollectionID string    `json:"collectionId"`
}

var (
	defaultOSInfo  = OSInfo{Platform: NotAvailable, Distro: NotAvailable, Release: NotAvailable}
	defaultBattery = BatteryStat{}
)

// EmptySnapshot is the snapshot served before the first collection.
func EmptySnapshot() Snapshot {
	return Build(RawGroups{}, BuildOptions{})
}

// Build turns settled raw groups into a Snapshot. It never fails: an
// absent group degrades to its documented default.
func Build(raw RawGroups, opts BuildOptions) Snapshot {
	var s Snapshot

	if raw.CPULoad.OK() {
		s.CPULoadPercent = ptr(round1(raw.CPULoad.Value.CurrentLoad))
	}

	mem := raw.Memory.Or(MemoryStat{})
	s.TotalRAMMB = int64(math.Round(float64(mem.Total) / bytesPerMB))
	s.UsedRAMMB = int64(math.Round(float64(mem.Used) / bytesPerMB))
	if mem.Total > 0 {
		s.UsedRAMPercent = ptr(round1(float64(mem.Used) / float64(mem.Total) * 100))
	}

	s.UptimeHours = round1(float64(raw.Time.Or(TimeInfo{}).Uptime) / 3600)

	osInfo := raw.OSInfo.Or(defaultOSInfo)
	s.OSPlatform = orNA(osInfo.Platform)
	s.OSDistro = orNA(osInfo.Distro)
	s.OSRelease = orNA(osInfo.Release)

	bat := raw.Battery.Or(defaultBattery)
	s.HasBattery = bat.HasBattery
	s.BatteryPercent = roundPtr(bat.Percent)
	s.IsCharging = bat.IsCharging
	s.TimeRemainingMinutes = roundPtr(bat.TimeRemaining)
	s.BatteryHealthPercent = batteryHealth(bat)

	s.GPUName = NotAvailable
	if opts.IncludeGraphics {
		if gpu, ok := primaryGPU(raw.Graphics.Or(Graphics{}).Controllers); ok {
			s.GPUName = orNA(gpu.Model)
			s.GPULoadPercent = gpu.UtilizationGPU
			s.GPUTempC = gpu.TemperatureGPU
		}
	}

	s.DiskName = NotAvailable
	if fs, ok := primaryDisk(raw.Filesystems.Or(nil)); ok {
		s.DiskName = orNA(fs.FS)
		s.DiskUsePercent = roundPtr(fs.Use)
	}

	s.NetIface = NotAvailable
	if iface, ok := primaryInterface(raw.NetworkStats.Or(nil)); ok {
		s.NetIface = orNA(iface.Iface)
		s.NetRxKBs = kbPerSec(iface.RxSec)
		s.NetTxKBs = kbPerSec(iface.TxSec)
	}

	s.TopProcesses = []ProcessEntry{}
	if opts.IncludeProcesses {
		s.TopProcesses = topProcesses(raw.Processes.Or(nil), topProcessCount)
	}

	return s
}

// batteryHealth approximates wear as full-charge capacity over design
// capacity. It says nothing about the current charge level.
func batteryHealth(b BatteryStat) *float64 {
	if !b.HasBattery || b.MaxCapacity <= 0 || b.DesignedCapacity <= 0 {
		return nil
	}
	return ptr(round1(b.MaxCapacity / b.DesignedCapacity * 100))
}

func kbPerSec(bps *float64) *float64 {
	if bps == nil {
		return nil
	}
	return ptr(round1(*bps / 1024))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(round1(*v))
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}
