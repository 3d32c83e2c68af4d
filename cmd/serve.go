package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobayer109/My-monitor/internal/api"
	"github.com/jobayer109/My-monitor/internal/config"
	"github.com/jobayer109/My-monitor/internal/database"
	"github.com/jobayer109/My-monitor/internal/monitoring"
	"github.com/jobayer109/My-monitor/internal/websockets"
)

const (
	historyFlushInterval = time.Second
	shutdownTimeout      = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Collect metrics and serve the dashboard and HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Persistent so the bare root command, which also serves, accepts them.
	flags := rootCmd.PersistentFlags()
	flags.Int("port", 5000, "HTTP listen port")
	flags.String("host", "", "HTTP listen host")
	flags.Int("interval", 0, "seconds between scheduled collections (0 collects at start and on /collect only)")
	_ = v.BindPFlag("server.port", flags.Lookup("port"))
	_ = v.BindPFlag("server.host", flags.Lookup("host"))
	_ = v.BindPFlag("monitoring.interval_seconds", flags.Lookup("interval"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("My Monitor starting",
		zap.String("addr", cfg.Addr()),
		zap.Int("interval_seconds", cfg.Monitoring.IntervalSeconds),
		zap.Bool("history", cfg.History.Enabled),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := cfg.MonitoringOptions()
	store := monitoring.NewStore(monitoring.EmptySnapshot())
	collector := monitoring.NewCollector(
		monitoring.NewSystemProvider(opts, logger),
		store,
		opts.BuildOptions(),
		logger,
		monitoring.NewCollectorMetrics(registry),
	)

	handler := api.NewHandler(store, collector, logger)
	handler.Gatherer = registry

	var workers sync.WaitGroup

	hub := websockets.NewHub(store.Get, logger)
	wsCh := make(chan monitoring.Snapshot, 1)
	collector.Subscribe(wsCh)
	handler.Hub = hub
	workers.Add(1)
	go func() {
		defer workers.Done()
		hub.Run(ctx, wsCh)
	}()

	if cfg.History.Enabled {
		history, err := database.Open(cfg.History.Filename, logger)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer history.Close()

		histCh := make(chan monitoring.Snapshot, 16)
		collector.Subscribe(histCh)
		handler.History = history
		workers.Add(1)
		go func() {
			defer workers.Done()
			history.Run(ctx, histCh, historyFlushInterval, cfg.Retention())
		}()
		logger.Info("history enabled",
			zap.String("file", cfg.History.Filename),
			zap.Duration("retention", cfg.Retention()),
		)
	}

	// The first snapshot is ready before the server accepts requests.
	collector.Collect(ctx)
	workers.Add(1)
	go func() {
		defer workers.Done()
		collector.Every(ctx, opts.CollectInterval)
	}()

	r := mux.NewRouter()
	api.RegisterRoutes(r, handler)
	if info, err := os.Stat(cfg.Server.StaticDir); err == nil && info.IsDir() {
		api.RegisterFrontend(r, os.DirFS(cfg.Server.StaticDir))
		logger.Info("serving dashboard", zap.String("dir", cfg.Server.StaticDir))
	} else {
		logger.Warn("dashboard directory not found, serving API only", zap.String("dir", cfg.Server.StaticDir))
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info("My Monitor listening", zap.String("addr", srv.Addr))

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server error", zap.Error(serveErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	cancel()
	workers.Wait()
	logger.Info("My Monitor stopped")
	return serveErr
}
