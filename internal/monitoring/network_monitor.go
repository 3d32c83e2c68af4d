package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/net"
)

// NetworkStats returns per-interface throughput. Interfaces are listed in
// the order the OS reports them.
func (p *SystemProvider) NetworkStats(ctx context.Context) ([]NetworkStat, error) {
	interfaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	rates := p.net.sample(counters)

	result := make([]NetworkStat, 0, len(interfaces))
	for _, iface := range interfaces {
		st := NetworkStat{
			Iface:     iface.Name,
			OperState: operState(iface.Flags),
			Internal:  hasFlag(iface.Flags, "loopback"),
		}
		if r, ok := rates[iface.Name]; ok {
			st.RxSec = r.rx
			st.TxSec = r.tx
		}
		result = append(result, st)
	}
	return result, nil
}

func operState(flags []string) string {
	if hasFlag(flags, "up") {
		return "up"
	}
	return "down"
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

type ifaceRate struct {
	rx, tx *float64
}

// netSampler turns cumulative interface counters into bytes/sec by
// diffing against the previous call.
type netSampler struct {
	mu     sync.Mutex
	prev   map[string]net.IOCountersStat
	prevAt time.Time
	now    func() time.Time
}

func newNetSampler() *netSampler {
	return &netSampler{now: time.Now}
}

// sample records counters and returns rates for every interface. Rates
// are nil on the first call, for new interfaces and after a counter reset.
func (s *netSampler) sample(counters []net.IOCountersStat) map[string]ifaceRate {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	elapsed := now.Sub(s.prevAt).Seconds()

	rates := make(map[string]ifaceRate, len(counters))
	next := make(map[string]net.IOCountersStat, len(counters))
	for _, c := range counters {
		next[c.Name] = c
		prev, ok := s.prev[c.Name]
		if !ok || elapsed <= 0 || c.BytesRecv < prev.BytesRecv || c.BytesSent < prev.BytesSent {
			rates[c.Name] = ifaceRate{}
			continue
		}
		rates[c.Name] = ifaceRate{
			rx: ptr(float64(c.BytesRecv-prev.BytesRecv) / elapsed),
			tx: ptr(float64(c.BytesSent-prev.BytesSent) / elapsed),
		}
	}

	s.prev = next
	s.prevAt = now
	return rates
}
