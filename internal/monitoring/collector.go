package monitoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collector runs collection passes: fetch every enabled raw group
// concurrently, build a Snapshot, store it and publish it.
type Collector struct {
	provider Provider
	store    *Store
	opts     BuildOptions
	logger   *zap.Logger
	metrics  *CollectorMetrics
	now      func() time.Time

	mu          sync.RWMutex
	subscribers []chan<- Snapshot
}

// NewCollector wires a collector. metrics may be nil.
func NewCollector(provider Provider, store *Store, opts BuildOptions, logger *zap.Logger, metrics *CollectorMetrics) *Collector {
	return &Collector{
		provider: provider,
		store:    store,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Store returns the snapshot store the collector writes to.
func (c *Collector) Store() *Store {
	return c.store
}

// Subscribe registers ch to receive every new snapshot. Sends never
// block; a subscriber that is not ready misses that snapshot.
func (c *Collector) Subscribe(ch chan<- Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, ch)
}

// Collect performs one pass and returns the snapshot it stored.
// Overlapping calls are allowed; the last one to finish wins the store.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	start := c.now()

	raw := c.fetch(ctx)
	snap := Build(raw, c.opts)
	snap.CollectedAt = start
	snap.CollectionID = uuid.NewString()

	c.store.Replace(snap)

	failed := c.failedGroups(raw)
	took := c.now().Sub(start)
	c.metrics.observe(snap, failed, took)
	c.logger.Debug("metrics collected",
		zap.String("collection_id", snap.CollectionID),
		zap.Duration("took", took),
		zap.Int("failed_groups", len(failed)),
	)

	c.publish(snap)
	return snap
}

// Run collects once immediately and then every interval until ctx is
// cancelled. A non-positive interval collects only once.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	c.Collect(ctx)
	c.Every(ctx, interval)
}

// Every collects once per interval until ctx is cancelled. It returns
// at once for a non-positive interval.
func (c *Collector) Every(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// fetch settles every enabled group. A failing or panicking group never
// cancels the others.
func (c *Collector) fetch(ctx context.Context) RawGroups {
	var (
		raw RawGroups
		g   errgroup.Group
	)

	settle(ctx, &g, GroupCPULoad, c.provider.CPULoad, &raw.CPULoad)
	settle(ctx, &g, GroupMemory, c.provider.Memory, &raw.Memory)
	settle(ctx, &g, GroupUptime, c.provider.Time, &raw.Time)
	settle(ctx, &g, GroupOSInfo, c.provider.OSInfo, &raw.OSInfo)
	settle(ctx, &g, GroupBattery, c.provider.Battery, &raw.Battery)
	if c.opts.IncludeGraphics {
		settle(ctx, &g, GroupGraphics, c.provider.Graphics, &raw.Graphics)
	}
	settle(ctx, &g, GroupFilesystems, c.provider.Filesystems, &raw.Filesystems)
	settle(ctx, &g, GroupNetwork, c.provider.NetworkStats, &raw.NetworkStats)
	if c.opts.IncludeProcesses {
		settle(ctx, &g, GroupProcesses, c.provider.Processes, &raw.Processes)
	}

	_ = g.Wait()
	return raw
}

func settle[T any](ctx context.Context, g *errgroup.Group, group GroupName, fetch func(context.Context) (T, error), dst *Result[T]) {
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				*dst = Failed[T](&GroupError{Group: group, Err: fmt.Errorf("panic: %v", r)})
			}
		}()

		v, fetchErr := fetch(ctx)
		if fetchErr != nil {
			*dst = Failed[T](&GroupError{Group: group, Err: fetchErr})
			return nil
		}
		*dst = Succeeded(v)
		return nil
	})
}

// failedGroups logs and returns the enabled groups that fell back to
// their defaults.
func (c *Collector) failedGroups(raw RawGroups) []GroupName {
	failures := raw.Failures()

	var failed []GroupName
	for group := range failures {
		if group == GroupGraphics && !c.opts.IncludeGraphics {
			continue
		}
		if group == GroupProcesses && !c.opts.IncludeProcesses {
			continue
		}
		failed = append(failed, group)
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })

	for _, group := range failed {
		c.logger.Warn("metric group unavailable, using defaults",
			zap.String("group", string(group)),
			zap.Error(failures[group]),
		)
	}
	return failed
}

func (c *Collector) publish(snap Snapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			c.logger.Debug("subscriber busy, snapshot dropped",
				zap.String("collection_id", snap.CollectionID))
		}
	}
}
