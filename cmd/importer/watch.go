package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Jaylorddeguzman/importer/internal/tui"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [url]",
	Short: "Terminal dashboard for a running importer",
	Long: `watch polls /stats and /api/recent of a running importer and renders them.
Without a URL it reuses the last watched one, falling back to ` + tui.DefaultTarget + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := tui.LastTarget()
		if len(args) == 1 {
			target = args[0]
		}
		return tui.Run(target, watchInterval)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Polling interval")
	rootCmd.AddCommand(watchCmd)
}
