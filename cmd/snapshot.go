package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/jobayer109/My-monitor/internal/monitoring"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect once and print the snapshot as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, cleanup, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := cfg.MonitoringOptions()
		collector := monitoring.NewCollector(
			monitoring.NewSystemProvider(opts, logger),
			monitoring.NewStore(monitoring.EmptySnapshot()),
			opts.BuildOptions(),
			logger,
			nil,
		)
		return writeSnapshot(cmd.OutOrStdout(), collector.Collect(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func writeSnapshot(w io.Writer, snap monitoring.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
