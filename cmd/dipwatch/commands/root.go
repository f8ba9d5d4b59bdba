package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dipwatch",
	Short: "dipwatch - value investing dip alerts over SMS",
	Long: `dipwatch watches a fixed universe of stocks, ETFs, commodities and
crypto for value-investing buying opportunities and texts subscribers
when their thresholds are met.

Examples:
  dipwatch serve
  dipwatch scan daily
  dipwatch refresh --force`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
