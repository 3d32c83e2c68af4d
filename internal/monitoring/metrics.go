package monitoring

// GroupName identifies one independently fetched raw metric group.
type GroupName string

const (
	GroupCPULoad     GroupName = "cpu-load"
	GroupMemory      GroupName = "memory"
	GroupUptime      GroupName = "uptime"
	GroupOSInfo      GroupName = "os-info"
	GroupBattery     GroupName = "battery"
	GroupGraphics    GroupName = "graphics"
	GroupFilesystems GroupName = "filesystems"
	GroupNetwork     GroupName = "network-interfaces"
	GroupProcesses   GroupName = "processes"
)

// AllGroups lists every raw group in collection order.
var AllGroups = []GroupName{
	GroupCPULoad,
	GroupMemory,
	GroupUptime,
	GroupOSInfo,
	GroupBattery,
	GroupGraphics,
	GroupFilesystems,
	GroupNetwork,
	GroupProcesses,
}

// CPULoad is the aggregate CPU utilisation across all cores.
type CPULoad struct {
	CurrentLoad float64
}

// MemoryStat holds physical memory counters in bytes.
type MemoryStat struct {
	Total uint64
	Used  uint64
}

// TimeInfo carries the host uptime in seconds.
type TimeInfo struct {
	Uptime uint64
}

// OSInfo describes the running operating system.
type OSInfo struct {
	Platform string // linux, windows, darwin
	Distro   string // ubuntu, Microsoft Windows 11 Pro, ...
	Release  string
}

// BatteryStat is the state of the first battery found on the host.
// Capacities are in mWh.
type BatteryStat struct {
	HasBattery       bool
	Percent          *float64
	IsCharging       *bool
	TimeRemaining    *float64 // minutes, only while discharging
	MaxCapacity      float64
	DesignedCapacity float64
}

// GPUController is one graphics adapter. Utilisation and temperature are
// only known for adapters with a vendor tool (nvidia-smi).
type GPUController struct {
	Vendor         string
	Model          string
	UtilizationGPU *float64
	TemperatureGPU *float64
}

// Graphics is the list of graphics controllers in discovery order.
type Graphics struct {
	Controllers []GPUController
}

// Filesystem is the usage of one mounted filesystem.
type Filesystem struct {
	FS    string // device, e.g. /dev/sda2 or C:
	Mount string
	Size  uint64
	Used  uint64
	Use   *float64 // percent
}

// NetworkStat is the throughput of one network interface in bytes/sec.
// Rates are unknown until a previous sample exists.
type NetworkStat struct {
	Iface     string
	OperState string
	Internal  bool
	RxSec     *float64
	TxSec     *float64
}

// ProcessStat is one running process. Percentages are nil when the
// platform refused to report them.
type ProcessStat struct {
	PID        int32
	Name       string
	CPUPercent *float64
	MemPercent *float64
}
