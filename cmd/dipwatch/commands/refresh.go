package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipwatch/dipwatch/internal/universe"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [ticker...]",
	Short: "Refresh cached market snapshots",
	Long: `Fetches fresh quotes and fundamentals for stale universe tickers.
Pass tickers to restrict the run, or --force to refetch regardless of
staleness.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "refetch even fresh snapshots")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := args
	if len(tickers) == 0 {
		tickers = universe.AllTickers()
	}

	var refreshed []string
	if refreshForce {
		refreshed, err = a.Refresher.RefreshAll(cmd.Context(), tickers)
	} else {
		refreshed, err = a.Refresher.Refresh(cmd.Context(), tickers, a.Config.Market.RefreshMaxAge)
	}
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Refreshed %d of %d tickers\n", len(refreshed), len(tickers))
	for _, t := range refreshed {
		fmt.Printf("  - %s\n", t)
	}

	return nil
}
