// Package config loads application configuration from file, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobayer109/My-monitor/internal/logging"
	"github.com/jobayer109/My-monitor/internal/monitoring"
)

// EnvPrefix prefixes environment overrides, e.g. MYMONITOR_SERVER_PORT.
const EnvPrefix = "MYMONITOR"

// ServerConfig represents server configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// MonitoringConfig represents monitoring configuration
type MonitoringConfig struct {
	IntervalSeconds     int  `mapstructure:"interval_seconds"` // 0 collects only at start and on demand
	CPUSampleMillis     int  `mapstructure:"cpu_sample_millis"`
	GPUInfoCacheSeconds int  `mapstructure:"gpu_info_cache_seconds"`
	IncludeGraphics     bool `mapstructure:"include_graphics"`
	IncludeProcesses    bool `mapstructure:"include_processes"`
}

// HistoryConfig represents snapshot history persistence
type HistoryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Filename       string `mapstructure:"filename"`
	RetentionHours int    `mapstructure:"retention_hours"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Development bool   `mapstructure:"development"`
}

// Config structure for application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	History    HistoryConfig    `mapstructure:"history"`
	Log        LogConfig        `mapstructure:"log"`
}

// Default returns default configuration values
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "",
			Port:      5000,
			StaticDir: "frontend",
		},
		Monitoring: MonitoringConfig{
			IntervalSeconds:     0,
			CPUSampleMillis:     500,
			GPUInfoCacheSeconds: 600,
			IncludeGraphics:     true,
			IncludeProcesses:    true,
		},
		History: HistoryConfig{
			Enabled:        false,
			Filename:       "monitor.db",
			RetentionHours: 24,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("monitoring.interval_seconds", d.Monitoring.IntervalSeconds)
	v.SetDefault("monitoring.cpu_sample_millis", d.Monitoring.CPUSampleMillis)
	v.SetDefault("monitoring.gpu_info_cache_seconds", d.Monitoring.GPUInfoCacheSeconds)
	v.SetDefault("monitoring.include_graphics", d.Monitoring.IncludeGraphics)
	v.SetDefault("monitoring.include_processes", d.Monitoring.IncludeProcesses)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.filename", d.History.Filename)
	v.SetDefault("history.retention_hours", d.History.RetentionHours)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.development", d.Log.Development)
}

// Load reads configuration into v and decodes it. Precedence is flags
// bound on v, then MYMONITOR_* environment variables, then the file at
// path, then defaults. A missing file is created with the defaults; an
// empty path skips the file entirely.
func Load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := v.SafeWriteConfigAs(path); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
		} else if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg = validateAndFillDefaults(cfg)
	return &cfg, nil
}

// validateAndFillDefaults replaces out-of-range values with defaults.
func validateAndFillDefaults(cfg Config) Config {
	defaults := Default()

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Monitoring.IntervalSeconds < 0 {
		cfg.Monitoring.IntervalSeconds = defaults.Monitoring.IntervalSeconds
	}
	if cfg.Monitoring.CPUSampleMillis < 0 {
		cfg.Monitoring.CPUSampleMillis = defaults.Monitoring.CPUSampleMillis
	}
	if cfg.Monitoring.GPUInfoCacheSeconds <= 0 {
		cfg.Monitoring.GPUInfoCacheSeconds = defaults.Monitoring.GPUInfoCacheSeconds
	}
	if cfg.History.Filename == "" {
		cfg.History.Filename = defaults.History.Filename
	}
	if cfg.History.RetentionHours <= 0 {
		cfg.History.RetentionHours = defaults.History.RetentionHours
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil || cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return cfg
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MonitoringOptions converts the monitoring section for the collector.
func (c *Config) MonitoringOptions() *monitoring.MonitoringConfig {
	return &monitoring.MonitoringConfig{
		IncludeGraphics:   c.Monitoring.IncludeGraphics,
		IncludeProcesses:  c.Monitoring.IncludeProcesses,
		CPUSampleInterval: time.Duration(c.Monitoring.CPUSampleMillis) * time.Millisecond,
		GPUCacheDuration:  time.Duration(c.Monitoring.GPUInfoCacheSeconds) * time.Second,
		CollectInterval:   time.Duration(c.Monitoring.IntervalSeconds) * time.Second,
	}
}

// Retention is how long history rows are kept.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionHours) * time.Hour
}

// Logging converts the log section.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		File:        c.Log.File,
		Development: c.Log.Development,
	}
}
