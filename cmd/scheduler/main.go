package main

import (
	"fmt"
	"os"
	"time"

	"finledger/internal/config"
	"finledger/internal/database"
	"finledger/internal/logger"
	"finledger/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Errorf("Scheduler error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scheduler",
		Short:         "Finledger background scheduler",
		Long:          "Posts due recurring transactions into the ledger. Intended to run from cron.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Materialize all due recurring transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if asOf != "" {
				parsed, err := time.Parse("2006-01-02", asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of date: %w", err)
				}
				now = parsed
			}
			return runOnce(now)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Treat this date (YYYY-MM-DD) as now, for catch-up runs")
	return cmd
}

// runOnce processes every due template. Individual template failures are
// logged inside the service and do not fail the run; only an infrastructure
// failure returns an error.
func runOnce(now time.Time) error {
	log := logger.Get()

	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	recurringService := services.NewRecurringService(db, transactionService)

	stats, err := recurringService.MaterializeDueRecurring(now)
	if err != nil {
		return fmt.Errorf("recurring run failed: %w", err)
	}

	log.Infow("Recurring run finished",
		"processed", stats.Processed,
		"failed", stats.Failed,
	)
	return nil
}
