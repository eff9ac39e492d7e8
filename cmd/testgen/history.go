package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/ado-testgen/internal/db"
	"github.com/jonathan/ado-testgen/internal/observability"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List recorded generation runs",
	Long:  "Lists recent runs stored in the run-history database (DATABASE_URL or --db-url). With --run, shows the recorded stages of one run.",
	RunE:  runHistory,
}

var (
	historyCommon  commonFlags
	historyStoryID int
	historyStatus  string
	historyLimit   int
	historyRunID   string
)

func init() {
	historyCommon.register(historyCommand)

	historyCommand.Flags().IntVarP(&historyStoryID, "story-id", "s", 0, "Only runs for this story")
	historyCommand.Flags().StringVar(&historyStatus, "status", "", "Only runs with this status (running, succeeded, failed)")
	historyCommand.Flags().IntVar(&historyLimit, "limit", db.DefaultListLimit, "Maximum number of runs")
	historyCommand.Flags().StringVar(&historyRunID, "run", "", "Show the steps of one run")

	rootCmd.AddCommand(historyCommand)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := historyCommon.load(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("run history requires DATABASE_URL or --db-url")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	printer := observability.NewPrinter(os.Stdout)

	if historyRunID != "" {
		runID, err := uuid.Parse(historyRunID)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", historyRunID, err)
		}
		run, err := database.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run not found: %s", runID)
		}
		steps, err := database.ListRunSteps(ctx, runID)
		if err != nil {
			return err
		}
		printer.PrintRuns([]db.Run{*run})
		printer.PrintRunSteps(steps)
		return nil
	}

	runs, err := database.ListRuns(ctx, db.RunFilters{
		StoryID: historyStoryID,
		Status:  historyStatus,
		Limit:   historyLimit,
	})
	if err != nil {
		return err
	}
	printer.PrintRuns(runs)
	return nil
}
