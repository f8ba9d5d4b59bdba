package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dipwatch/dipwatch/internal/api"
	"github.com/dipwatch/dipwatch/internal/api/handlers"
	"github.com/dipwatch/dipwatch/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and operator API",
	Long: `Starts the alert scheduler with all band jobs plus the market
refresh job, and serves the operator HTTP API until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.Logger)
	for _, job := range []scheduler.Job{
		a.Refresh, a.Corrections, a.Realtime, a.Daily, a.Weekly,
	} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
	}
	sched.Start()

	cronHandler := handlers.NewCronHandler(a.Refresher, a.Config.Market.RefreshMaxAge, a.bandRunners(), a.Logger)
	jobsHandler := handlers.NewJobsHandler(sched, a.Logger)
	usersHandler := handlers.NewUsersHandler(a.Users, a.Finder, a.Logger)

	router := api.NewRouter(cronHandler, jobsHandler, usersHandler, a.Logger)
	server := api.New(a.Config, a.Logger, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case sig := <-quit:
		a.Logger.WithField("signal", sig.String()).Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.WithError(err).Error("server shutdown failed")
	}
	sched.Stop()

	return nil
}
