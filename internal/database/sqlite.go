// Package database persists snapshot history in SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/jobayer109/My-monitor/internal/monitoring"
)

// Metric names stored in resource_logs.
const (
	MetricCPU      = "cpu"
	MetricRAM      = "ram"
	MetricDisk     = "disk"
	MetricNetRx    = "net_rx"
	MetricNetTx    = "net_tx"
	MetricGPULoad  = "gpu_load"
	MetricGPUTemp  = "gpu_temp"
	MetricBattery  = "battery"
	inMemoryDBPath = ":memory:"
)

var knownMetrics = map[string]bool{
	MetricCPU: true, MetricRAM: true, MetricDisk: true, MetricNetRx: true,
	MetricNetTx: true, MetricGPULoad: true, MetricGPUTemp: true, MetricBattery: true,
}

// IsKnownMetric reports whether name is a stored metric.
func IsKnownMetric(name string) bool {
	return knownMetrics[name]
}

// Sample is one stored value of one metric.
type Sample struct {
	CollectionID string    `json:"collectionId"`
	Timestamp    time.Time `json:"timestamp"`
	Metric       string    `json:"metric"`
	Value        float64   `json:"value"`
}

// HistoryStore reads and writes the resource_logs table.
type HistoryStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path. ":memory:" gives
// a private in-memory database.
func Open(path string, logger *zap.Logger) (*HistoryStore, error) {
	if path != inMemoryDBPath {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &HistoryStore{db: db, logger: logger}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS resource_logs (
		  id INTEGER PRIMARY KEY AUTOINCREMENT,
		  collection_id TEXT NOT NULL,
		  timestamp INTEGER NOT NULL, -- unix milliseconds
		  metric_type TEXT NOT NULL,
		  value REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resource_logs_timestamp ON resource_logs(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_resource_logs_metric_type_timestamp ON resource_logs(metric_type, timestamp);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SamplesFromSnapshot extracts the known numeric fields of snap.
func SamplesFromSnapshot(snap monitoring.Snapshot) []Sample {
	fields := []struct {
		metric string
		value  *float64
	}{
		{MetricCPU, snap.CPULoadPercent},
		{MetricRAM, snap.UsedRAMPercent},
		{MetricDisk, snap.DiskUsePercent},
		{MetricNetRx, snap.NetRxKBs},
		{MetricNetTx, snap.NetTxKBs},
		{MetricGPULoad, snap.GPULoadPercent},
		{MetricGPUTemp, snap.GPUTempC},
		{MetricBattery, snap.BatteryPercent},
	}

	samples := make([]Sample, 0, len(fields))
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		samples = append(samples, Sample{
			CollectionID: snap.CollectionID,
			Timestamp:    snap.CollectedAt,
			Metric:       f.metric,
			Value:        *f.value,
		})
	}
	return samples
}

// InsertSnapshots writes all snapshots in one transaction.
func (s *HistoryStore) InsertSnapshots(ctx context.Context, snaps []monitoring.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO resource_logs (collection_id, timestamp, metric_type, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		for _, sample := range SamplesFromSnapshot(snap) {
			if _, err := stmt.ExecContext(ctx, sample.CollectionID, sample.Timestamp.UnixMilli(), sample.Metric, sample.Value); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert sample: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query returns samples of metric taken at or after since, oldest first.
func (s *HistoryStore) Query(ctx context.Context, metric string, since time.Time) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection_id, timestamp, value FROM resource_logs
		 WHERE metric_type = ? AND timestamp >= ?
		 ORDER BY timestamp, id`, metric, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var (
			sample Sample
			millis int64
		)
		if err := rows.Scan(&sample.CollectionID, &millis, &sample.Value); err != nil {
			return nil, err
		}
		sample.Metric = metric
		sample.Timestamp = time.UnixMilli(millis).UTC()
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// Prune deletes rows older than before and reports how many went.
func (s *HistoryStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resource_logs WHERE timestamp < ?", before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Run buffers snapshots from in and flushes them once per flushEvery,
// pruning rows older than retention after each flush. It returns when
// ctx is cancelled or in is closed, flushing what is buffered.
func (s *HistoryStore) Run(ctx context.Context, in <-chan monitoring.Snapshot, flushEvery, retention time.Duration) {
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	buffer := make([]monitoring.Snapshot, 0, 10)

	flush := func(ctx context.Context) {
		if len(buffer) == 0 {
			return
		}
		if err := s.InsertSnapshots(ctx, buffer); err != nil {
			s.logger.Error("failed to store snapshots", zap.Int("count", len(buffer)), zap.Error(err))
		}
		buffer = buffer[:0]

		if retention > 0 {
			n, err := s.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				s.logger.Error("failed to prune history", zap.Error(err))
			} else if n > 0 {
				s.logger.Debug("pruned history", zap.Int64("rows", n))
			}
		}
	}

	for {
		select {
		case snap, ok := <-in:
			if !ok {
				flush(context.Background())
				return
			}
			buffer = append(buffer, snap)
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			flush(context.Background())
			return
		}
	}
}
