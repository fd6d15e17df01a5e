package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "fleetsight",
	Short: "Chameleon carrier detection for FMCSA data",
	Long: `Fleetsight ingests FMCSA census, crash, and inspection data from the
data.transportation.gov Socrata API and scores carrier pairs for reincarnated
("chameleon") carrier patterns: shared phones, officers, addresses, VINs, and
prior-revocation links.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(detectCmd)
}

// Commands are defined in separate files:
// - ingestCmd in ingest.go
// - detectCmd in detect.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
