package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipwatch/dipwatch/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := migrations.RunPostgres(cmd.Context(), a.DB.Pool); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}

		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
