package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jaylorddeguzman/importer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Continuously import OpenStreetMap points of interest into a shared store",
	Long: `importer walks a catalog of locations and categories forever, pulls matching
points of interest from the Overpass API and stores the ones it has not seen yet.

Running without a subcommand is the same as "importer serve".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "importer "+version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
