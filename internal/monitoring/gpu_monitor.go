package monitoring

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jaypipes/ghw"
	"go.uber.org/zap"
)

const nvidiaSMITimeout = 2 * time.Second

// Graphics returns the graphics controllers with live NVIDIA readings
// merged in.
func (p *SystemProvider) Graphics(ctx context.Context) (Graphics, error) {
	controllers, err := p.gpu.controllers(ctx)
	if err != nil {
		return Graphics{}, err
	}
	return Graphics{Controllers: controllers}, nil
}

type nvidiaSample struct {
	Name        string
	Utilization *float64
	Temperature *float64
}

// gpuSampler caches the PCI graphics inventory, which rarely changes, and
// refreshes utilisation from nvidia-smi on every call.
type gpuSampler struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	listCards func() ([]GPUController, error)
	querySMI  func(ctx context.Context) ([]nvidiaSample, error)

	mu          sync.Mutex
	inventory   []GPUController
	inventoryAt time.Time
}

func newGPUSampler(ttl time.Duration, logger *zap.Logger) *gpuSampler {
	return &gpuSampler{
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		listCards: listGraphicsCards,
		querySMI:  queryNvidiaSMI,
	}
}

func (g *gpuSampler) controllers(ctx context.Context) ([]GPUController, error) {
	inventory, invErr := g.cachedInventory()
	samples, smiErr := g.querySMI(ctx)
	if smiErr != nil {
		g.logger.Debug("nvidia-smi unavailable", zap.Error(smiErr))
	}

	if len(inventory) == 0 {
		if len(samples) == 0 {
			if invErr != nil {
				return nil, fmt.Errorf("gpu inventory: %w", invErr)
			}
			return []GPUController{}, nil
		}
		controllers := make([]GPUController, 0, len(samples))
		for _, s := range samples {
			controllers = append(controllers, GPUController{
				Vendor:         "NVIDIA",
				Model:          s.Name,
				UtilizationGPU: s.Utilization,
				TemperatureGPU: s.Temperature,
			})
		}
		return controllers, nil
	}

	return mergeNvidiaSamples(inventory, samples), nil
}

func (g *gpuSampler) cachedInventory() ([]GPUController, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inventory != nil && g.now().Sub(g.inventoryAt) < g.ttl {
		return g.inventory, nil
	}

	cards, err := g.listCards()
	if err != nil {
		// Keep serving the stale inventory rather than dropping the GPU block.
		return g.inventory, err
	}
	g.inventory = cards
	g.inventoryAt = g.now()
	return cards, nil
}

// mergeNvidiaSamples attaches nvidia-smi readings to NVIDIA controllers in
// order. The inventory slice is copied, not modified.
func mergeNvidiaSamples(inventory []GPUController, samples []nvidiaSample) []GPUController {
	merged := make([]GPUController, len(inventory))
	copy(merged, inventory)

	next := 0
	for i := range merged {
		if next >= len(samples) {
			break
		}
		if !strings.Contains(strings.ToLower(merged[i].Vendor), "nvidia") {
			continue
		}
		s := samples[next]
		next++
		if s.Name != "" {
			merged[i].Model = s.Name
		}
		merged[i].UtilizationGPU = s.Utilization
		merged[i].TemperatureGPU = s.Temperature
	}
	return merged
}

func listGraphicsCards() ([]GPUController, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, err
	}

	cards := info.GraphicsCards
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Index < cards[j].Index })

	controllers := make([]GPUController, 0, len(cards))
	for _, card := range cards {
		var c GPUController
		if card.DeviceInfo != nil {
			if card.DeviceInfo.Vendor != nil {
				c.Vendor = strings.TrimSpace(card.DeviceInfo.Vendor.Name)
			}
			if card.DeviceInfo.Product != nil {
				c.Model = strings.TrimSpace(card.DeviceInfo.Product.Name)
			}
		}
		controllers = append(controllers, c)
	}
	return controllers, nil
}

func queryNvidiaSMI(ctx context.Context) ([]nvidiaSample, error) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, nvidiaSMITimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path,
		"--query-gpu=name,utilization.gpu,temperature.gpu",
		"--format=csv,noheader,nounits")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseNvidiaSMI(string(output))
}

// parseNvidiaSMI reads "name, utilization, temperature" CSV lines, one per
// GPU. Fields reported as [N/A] or [Not Supported] stay unknown.
func parseNvidiaSMI(output string) ([]nvidiaSample, error) {
	var samples []nvidiaSample
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			return nil, fmt.Errorf("unexpected nvidia-smi output format: %q", line)
		}
		samples = append(samples, nvidiaSample{
			Name:        strings.TrimSpace(fields[0]),
			Utilization: parseSMIValue(fields[1]),
			Temperature: parseSMIValue(fields[2]),
		})
	}
	return samples, nil
}

func parseSMIValue(field string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return nil
	}
	return &v
}
