package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipwatch/dipwatch/internal/user"
)

var scanCmd = &cobra.Command{
	Use:   "scan [band]",
	Short: "Run one alert band scan immediately",
	Long: `Runs a single scan for the given band (corrections, realtime,
daily or weekly) and prints a summary. Alerts are sent for real, so
point Twilio at a test number or leave credentials unset to log only.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	band := user.Band(args[0])
	if !band.Valid() {
		return fmt.Errorf("unknown band: %s", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runner, ok := a.bandRunners()[band]
	if !ok {
		return fmt.Errorf("band %s has no scan job", band)
	}

	summary, err := runner.Execute(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Band:          %s\n", band)
	fmt.Printf("Users scanned: %d\n", summary.UsersScanned)
	fmt.Printf("Alerts sent:   %d\n", summary.AlertsSent)
	fmt.Printf("Suppressed:    %d\n", summary.Suppressed)
	fmt.Printf("Failures:      %d\n", summary.Failures)

	return nil
}
