package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobayer109/My-monitor/internal/config"
	"github.com/jobayer109/My-monitor/internal/logging"
)

var (
	configPath string
	verbose    bool

	// v collects flag bindings from every subcommand.
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "mymonitor",
	Short: "Host metrics monitor",
	Long: `mymonitor collects CPU, memory, battery, disk, network, GPU and
process metrics and serves them to a browser dashboard.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to configuration file (created with defaults if missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, configPath)
}

func newLogger(cfg *config.Config, stderr bool) (*zap.Logger, func(), error) {
	logCfg := cfg.Logging()
	if verbose {
		logCfg.Level = "debug"
	}
	logCfg.Stderr = stderr
	return logging.New(logCfg)
}
