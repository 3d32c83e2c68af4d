package monitoring

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allOn = BuildOptions{IncludeGraphics: true, IncludeProcesses: true}

func f64(v float64) *float64 { return &v }

func fullRaw() RawGroups {
	return RawGroups{
		CPULoad:  Succeeded(CPULoad{CurrentLoad: 12.34}),
		Memory:   Succeeded(MemoryStat{Total: 8 * 1024 * 1024 * 1024, Used: 2 * 1024 * 1024 * 1024}),
		Time:     Succeeded(TimeInfo{Uptime: 5400}),
		OSInfo:   Succeeded(OSInfo{Platform: "linux", Distro: "ubuntu", Release: "24.04"}),
		Battery:  Succeeded(BatteryStat{HasBattery: true, Percent: f64(80), IsCharging: ptr(true), MaxCapacity: 45000, DesignedCapacity: 50000}),
		Graphics: Succeeded(Graphics{Controllers: []GPUController{{Vendor: "NVIDIA", Model: "RTX 3060", UtilizationGPU: f64(40), TemperatureGPU: f64(55)}}}),
		Filesystems: Succeeded([]Filesystem{
			{FS: "/dev/sda1", Mount: "/", Size: 100, Used: 50, Use: f64(50.04)},
		}),
		NetworkStats: Succeeded([]NetworkStat{
			{Iface: "eth0", OperState: "up", RxSec: f64(2048), TxSec: f64(1024)},
		}),
		Processes: Succeeded([]ProcessStat{
			{PID: 1, Name: "init", CPUPercent: f64(0.5), MemPercent: f64(0.1)},
		}),
	}
}

func failMask(raw RawGroups, mask int) RawGroups {
	errBoom := errors.New("boom")
	if mask&(1<<0) != 0 {
		raw.CPULoad = Failed[CPULoad](errBoom)
	}
	if mask&(1<<1) != 0 {
		raw.Memory = Failed[MemoryStat](errBoom)
	}
	if mask&(1<<2) != 0 {
		raw.Time = Failed[TimeInfo](errBoom)
	}
	if mask&(1<<3) != 0 {
		raw.OSInfo = Failed[OSInfo](errBoom)
	}
	if mask&(1<<4) != 0 {
		raw.Battery = Failed[BatteryStat](errBoom)
	}
	if mask&(1<<5) != 0 {
		raw.Graphics = Failed[Graphics](errBoom)
	}
	if mask&(1<<6) != 0 {
		raw.Filesystems = Failed[[]Filesystem](errBoom)
	}
	if mask&(1<<7) != 0 {
		raw.NetworkStats = Failed[[]NetworkStat](errBoom)
	}
	if mask&(1<<8) != 0 {
		raw.Processes = Failed[[]ProcessStat](errBoom)
	}
	return raw
}

func TestBuildAnyFailureSubsetIsComplete(t *testing.T) {
	for mask := 0; mask < 1<<len(AllGroups); mask++ {
		raw := failMask(fullRaw(), mask)
		s := Build(raw, allOn)

		assert.Len(t, raw.Failures(), popcount(mask), "mask %09b", mask)
		for _, str := range []string{s.OSPlatform, s.OSDistro, s.OSRelease, s.GPUName, s.DiskName, s.NetIface} {
			assert.NotEmpty(t, str, "mask %09b", mask)
		}
		assert.NotNil(t, s.TopProcesses, "mask %09b", mask)
		assert.GreaterOrEqual(t, s.TotalRAMMB, int64(0))
		assert.Equal(t, s.UsedRAMPercent != nil, mask&(1<<1) == 0, "mask %09b", mask)

		_, err := json.Marshal(s)
		require.NoError(t, err)
	}
}

func popcount(v int) int {
	n := 0
	for ; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func TestBuildAllFailedMatchesEmptySnapshot(t *testing.T) {
	s := Build(failMask(fullRaw(), 1<<len(AllGroups)-1), allOn)

	assert.Nil(t, s.CPULoadPercent)
	assert.Equal(t, int64(0), s.TotalRAMMB)
	assert.Equal(t, int64(0), s.UsedRAMMB)
	assert.Nil(t, s.UsedRAMPercent)
	assert.Equal(t, 0.0, s.UptimeHours)
	assert.Equal(t, NotAvailable, s.OSPlatform)
	assert.Equal(t, NotAvailable, s.OSDistro)
	assert.Equal(t, NotAvailable, s.OSRelease)
	assert.False(t, s.HasBattery)
	assert.Nil(t, s.BatteryPercent)
	assert.Nil(t, s.IsCharging)
	assert.Nil(t, s.TimeRemainingMinutes)
	assert.Nil(t, s.BatteryHealthPercent)
	assert.Equal(t, NotAvailable, s.GPUName)
	assert.Nil(t, s.GPULoadPercent)
	assert.Nil(t, s.GPUTempC)
	assert.Equal(t, NotAvailable, s.DiskName)
	assert.Nil(t, s.DiskUsePercent)
	assert.Equal(t, NotAvailable, s.NetIface)
	assert.Nil(t, s.NetRxKBs)
	assert.Nil(t, s.NetTxKBs)
	assert.Empty(t, s.TopProcesses)

	assert.Equal(t, EmptySnapshot(), s)
}

func TestBuildHealthyHost(t *testing.T) {
	s := Build(fullRaw(), allOn)

	require.NotNil(t, s.CPULoadPercent)
	assert.Equal(t, 12.3, *s.CPULoadPercent)
	assert.Equal(t, int64(8192), s.TotalRAMMB)
	assert.Equal(t, int64(2048), s.UsedRAMMB)
	require.NotNil(t, s.UsedRAMPercent)
	assert.Equal(t, 25.0, *s.UsedRAMPercent)
	assert.Equal(t, 1.5, s.UptimeHours)
	assert.Equal(t, "linux", s.OSPlatform)
	assert.Equal(t, "ubuntu", s.OSDistro)
	assert.Equal(t, "24.04", s.OSRelease)
	assert.True(t, s.HasBattery)
	assert.Equal(t, 80.0, *s.BatteryPercent)
	assert.True(t, *s.IsCharging)
	assert.Equal(t, 90.0, *s.BatteryHealthPercent)
	assert.Equal(t, "RTX 3060", s.GPUName)
	assert.Equal(t, 40.0, *s.GPULoadPercent)
	assert.Equal(t, 55.0, *s.GPUTempC)
	assert.Equal(t, "/dev/sda1", s.DiskName)
	assert.Equal(t, 50.0, *s.DiskUsePercent)
	assert.Equal(t, "eth0", s.NetIface)
	assert.Equal(t, 2.0, *s.NetRxKBs)
	assert.Equal(t, 1.0, *s.NetTxKBs)
	require.Len(t, s.TopProcesses, 1)
	assert.Equal(t, ProcessEntry{PID: 1, Name: "init", CPUPercent: "0.5", MemPercent: "0.1"}, s.TopProcesses[0])
}

func TestBuildMemoryPercentUnknownWithoutTotal(t *testing.T) {
	raw := fullRaw()
	raw.Memory = Succeeded(MemoryStat{Total: 0, Used: 1024})

	s := Build(raw, allOn)
	assert.Nil(t, s.UsedRAMPercent)
	assert.Equal(t, int64(0), s.TotalRAMMB)
}

func TestBuildBatteryHealth(t *testing.T) {
	tests := []struct {
		name string
		bat  BatteryStat
		want *float64
	}{
		{"no battery", BatteryStat{HasBattery: false, MaxCapacity: 40, DesignedCapacity: 50}, nil},
		{"missing max", BatteryStat{HasBattery: true, DesignedCapacity: 50}, nil},
		{"missing design", BatteryStat{HasBattery: true, MaxCapacity: 40}, nil},
		{"worn", BatteryStat{HasBattery: true, MaxCapacity: 40, DesignedCapacity: 50}, f64(80)},
		{"rounded", BatteryStat{HasBattery: true, MaxCapacity: 2, DesignedCapacity: 3}, f64(66.7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := fullRaw()
			raw.Battery = Succeeded(tt.bat)
			assert.Equal(t, tt.want, Build(raw, allOn).BatteryHealthPercent)
		})
	}
}

func TestBuildPrefersDiscreteGPU(t *testing.T) {
	raw := fullRaw()
	raw.Graphics = Succeeded(Graphics{Controllers: []GPUController{
		{Vendor: "Intel Corporation", Model: "UHD 630"},
		{Vendor: "NVIDIA", Model: "RTX 3060", UtilizationGPU: f64(7)},
	}})
	s := Build(raw, allOn)
	assert.Equal(t, "RTX 3060", s.GPUName)
	assert.Equal(t, 7.0, *s.GPULoadPercent)

	raw.Graphics = Succeeded(Graphics{Controllers: []GPUController{{Vendor: "Intel", Model: "UHD 630"}}})
	s = Build(raw, allOn)
	assert.Equal(t, "UHD 630", s.GPUName)
	assert.Nil(t, s.GPULoadPercent)

	raw.Graphics = Succeeded(Graphics{Controllers: []GPUController{
		{Vendor: "Intel", Model: "UHD 630"},
		{Model: "Generic VGA"},
	}})
	assert.Equal(t, "Generic VGA", Build(raw, allOn).GPUName, "missing vendor is not intel")

	raw.Graphics = Succeeded(Graphics{})
	assert.Equal(t, NotAvailable, Build(raw, allOn).GPUName)
}

func TestBuildPrefersRootDisk(t *testing.T) {
	raw := fullRaw()
	raw.Filesystems = Succeeded([]Filesystem{
		{FS: "/dev/sda1", Mount: "/home", Use: f64(90)},
		{FS: "/dev/sda2", Mount: "/", Use: f64(30)},
	})
	s := Build(raw, allOn)
	assert.Equal(t, "/dev/sda2", s.DiskName)
	assert.Equal(t, 30.0, *s.DiskUsePercent)

	raw.Filesystems = Succeeded([]Filesystem{
		{FS: "D:", Mount: "D:", Use: f64(10)},
		{FS: "C:", Mount: "C:", Use: f64(70)},
	})
	assert.Equal(t, "C:", Build(raw, allOn).DiskName)

	raw.Filesystems = Succeeded([]Filesystem{{FS: "tmpfs", Mount: "/tmp"}})
	s = Build(raw, allOn)
	assert.Equal(t, "tmpfs", s.DiskName)
	assert.Nil(t, s.DiskUsePercent)
}

func TestBuildSkipsInternalInterfaces(t *testing.T) {
	raw := fullRaw()
	raw.NetworkStats = Succeeded([]NetworkStat{
		{Iface: "lo", OperState: "up", Internal: true, RxSec: f64(1)},
		{Iface: "wlan0", OperState: "down"},
		{Iface: "eth0", OperState: "up", RxSec: f64(10240)},
	})
	s := Build(raw, allOn)
	assert.Equal(t, "eth0", s.NetIface)
	assert.Equal(t, 10.0, *s.NetRxKBs)
	assert.Nil(t, s.NetTxKBs)

	raw.NetworkStats = Succeeded([]NetworkStat{{Iface: "lo", OperState: "up", Internal: true}})
	assert.Equal(t, "lo", Build(raw, allOn).NetIface)
}

func TestBuildTopProcesses(t *testing.T) {
	cpus := []float64{1, 5, 5, 3, 9, 2, 8}
	procs := make([]ProcessStat, len(cpus))
	for i, c := range cpus {
		procs[i] = ProcessStat{PID: int32(i + 1), Name: "p", CPUPercent: f64(c)}
	}

	raw := fullRaw()
	raw.Processes = Succeeded(procs)
	top := Build(raw, allOn).TopProcesses

	require.Len(t, top, 5)
	got := make([]int32, len(top))
	for i, p := range top {
		got[i] = p.PID
	}
	assert.Equal(t, []int32{5, 7, 2, 3, 4}, got, "ties keep input order")
	assert.Equal(t, "9.0", top[0].CPUPercent)
	assert.Equal(t, "0.0", top[0].MemPercent)

	assert.Equal(t, 1.0, *procs[0].CPUPercent, "input is not reordered")
	assert.Equal(t, int32(1), procs[0].PID)
}

func TestTopProcessesNonNumericCPU(t *testing.T) {
	top := topProcesses([]ProcessStat{
		{PID: 1, CPUPercent: nil},
		{PID: 2, CPUPercent: f64(math.NaN())},
		{PID: 3, CPUPercent: f64(0.25)},
	}, 5)

	require.Len(t, top, 3)
	assert.Equal(t, int32(3), top[0].PID)
	assert.Equal(t, "0.3", top[0].CPUPercent, "halves round away from zero like the numeric fields")
	assert.Equal(t, "0.0", top[1].CPUPercent)
	assert.Equal(t, "0.0", top[2].CPUPercent)
}

func TestBuildFeatureFlags(t *testing.T) {
	s := Build(fullRaw(), BuildOptions{})

	assert.Equal(t, NotAvailable, s.GPUName)
	assert.Nil(t, s.GPULoadPercent)
	assert.Nil(t, s.GPUTempC)
	assert.NotNil(t, s.TopProcesses)
	assert.Empty(t, s.TopProcesses)
	assert.Equal(t, "eth0", s.NetIface, "other blocks are unaffected")
}

func TestSnapshotJSONAlwaysHasEveryKey(t *testing.T) {
	data, err := json.Marshal(EmptySnapshot())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	keys := []string{
		"cpuLoadPercent", "totalRamMB", "usedRamMB", "usedRamPercent", "uptimeHours",
		"osPlatform", "osDistro", "osRelease",
		"hasBattery", "batteryPercent", "isCharging", "timeRemainingMinutes", "batteryHealthPercent",
		"gpuName", "gpuLoadPercent", "gpuTempC",
		"diskName", "diskUsePercent",
		"netIface", "netRxKBs", "netTxKBs",
		"topProcesses", "collectedAt", "collectionId",
	}
	for _, k := range keys {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["cpuLoadPercent"])
	assert.Nil(t, m["gpuTempC"])
	assert.Equal(t, "N/A", m["gpuName"])
	assert.Equal(t, []any{}, m["topProcesses"])
}

func TestRawGroupsFailures(t *testing.T) {
	raw := fullRaw()
	raw.Battery = Failed[BatteryStat](errors.New("no acpi"))

	failures := raw.Failures()
	require.Len(t, failures, 1)
	assert.EqualError(t, failures[GroupBattery], "no acpi")

	assert.Len(t, RawGroups{}.Failures(), len(AllGroups))
}

func TestFormatPercentMatchesRound1(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{f64(0.25), "0.3"},
		{f64(2.25), "2.3"},
		{f64(12.75), "12.8"},
		{f64(7), "7.0"},
		{f64(math.Inf(1)), "0.0"},
		{nil, "0.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPercent(tt.in))
	}
}
