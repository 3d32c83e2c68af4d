package monitoring

import (
	"context"
	"fmt"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/host"
)

// Time returns the host uptime in seconds.
func (p *SystemProvider) Time(ctx context.Context) (TimeInfo, error) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return TimeInfo{}, err
	}
	return TimeInfo{Uptime: uptime}, nil
}

// OSInfo returns the OS family, distribution and release.
func (p *SystemProvider) OSInfo(ctx context.Context) (OSInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return OSInfo{}, err
	}
	return OSInfo{
		Platform: info.OS,
		Distro:   info.Platform,
		Release:  info.PlatformVersion,
	}, nil
}

// Battery returns the state of the first battery. Hosts without one
// report HasBattery=false rather than an error.
func (p *SystemProvider) Battery(_ context.Context) (BatteryStat, error) {
	batteries, err := battery.GetAll()
	for _, b := range batteries {
		if b != nil {
			return batteryStat(b), nil
		}
	}
	if err != nil {
		return BatteryStat{}, fmt.Errorf("read batteries: %w", err)
	}
	return BatteryStat{HasBattery: false}, nil
}

// batteryStat converts a battery reading. Charge values are mWh and the
// charge rate is mW, so Current/ChargeRate is hours left.
func batteryStat(b *battery.Battery) BatteryStat {
	st := BatteryStat{
		HasBattery:       true,
		MaxCapacity:      b.Full,
		DesignedCapacity: b.Design,
	}
	if b.Full > 0 {
		st.Percent = ptr(b.Current / b.Full * 100)
	}
	switch b.State {
	case battery.Charging:
		st.IsCharging = ptr(true)
	case battery.Discharging:
		st.IsCharging = ptr(false)
		if b.ChargeRate > 0 {
			st.TimeRemaining = ptr(b.Current / b.ChargeRate * 60)
		}
	case battery.Full, battery.Empty:
		st.IsCharging = ptr(false)
	}
	return st
}
