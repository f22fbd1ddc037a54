// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Flags for detect command
	inputFile          string
	outputDB           string
	pmfFile            string
	maxCharge          int
	intensityThreshold float64
	votesCutoff        int
	gapTolerance       int
)

var rootCmd = &cobra.Command{
	Use:   "mzsweep",
	Short: "mzsweep - isotope pattern feature detection",
	Long: `mzsweep detects isotopic-pattern features in LC-MS runs with a
sweep line over the scan sequence.

Per-scan pattern candidates are scored against averagine isotope
envelopes, tracked across retention time, and promoted to features once
they persist over enough scans.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input mzML file path (required)")
	detectCmd.Flags().StringVarP(&outputDB, "out-db", "o", "", "Output SQLite database for detected features")
	detectCmd.Flags().StringVar(&pmfFile, "pmf", "", "Write a peptide mass fingerprint file to this path")
	detectCmd.Flags().IntVar(&maxCharge, "max-charge", 0, "Maximal charge state to consider (overrides config)")
	detectCmd.Flags().Float64Var(&intensityThreshold, "intensity-threshold", 0, "Adaptive score threshold factor, -1 disables (overrides config)")
	detectCmd.Flags().IntVar(&votesCutoff, "votes-cutoff", -1, "Minimum number of contributing scans per feature (overrides config)")
	detectCmd.Flags().IntVar(&gapTolerance, "gap-tolerance", -1, "Maximum number of missed scans per trace (overrides config)")

	detectCmd.MarkFlagRequired("in")
}
