package monitoring

import (
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetSamplerRates(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newNetSampler()
	s.now = func() time.Time { return clock }

	first := s.sample([]net.IOCountersStat{{Name: "eth0", BytesRecv: 1000, BytesSent: 500}})
	assert.Nil(t, first["eth0"].rx, "no previous sample")
	assert.Nil(t, first["eth0"].tx)

	clock = clock.Add(2 * time.Second)
	second := s.sample([]net.IOCountersStat{
		{Name: "eth0", BytesRecv: 5000, BytesSent: 2500},
		{Name: "wlan0", BytesRecv: 10, BytesSent: 10},
	})
	require.NotNil(t, second["eth0"].rx)
	assert.Equal(t, 2000.0, *second["eth0"].rx)
	assert.Equal(t, 1000.0, *second["eth0"].tx)
	assert.Nil(t, second["wlan0"].rx, "interface appeared since last sample")

	clock = clock.Add(time.Second)
	third := s.sample([]net.IOCountersStat{{Name: "eth0", BytesRecv: 100, BytesSent: 2600}})
	assert.Nil(t, third["eth0"].rx, "counter reset")
}

func TestNetSamplerSameInstant(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newNetSampler()
	s.now = func() time.Time { return clock }

	s.sample([]net.IOCountersStat{{Name: "eth0", BytesRecv: 1}})
	rates := s.sample([]net.IOCountersStat{{Name: "eth0", BytesRecv: 2}})
	assert.Nil(t, rates["eth0"].rx)
}

func TestOperState(t *testing.T) {
	assert.Equal(t, "up", operState([]string{"up", "broadcast", "multicast"}))
	assert.Equal(t, "down", operState([]string{"broadcast"}))
	assert.True(t, hasFlag([]string{"up", "loopback"}, "loopback"))
}
