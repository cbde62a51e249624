package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/config"
	"github.com/abdulachik/tweettask/internal/db"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded task runs",
	Long:  `Display per-operation totals and the most recent task runs from the history database.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of recent runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForHistory(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	// Ensure migrations are run
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	counts, err := store.CountTaskRunsByOperation(ctx)
	if err != nil {
		return fmt.Errorf("count task runs: %w", err)
	}

	runs, err := store.ListTaskRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list task runs: %w", err)
	}

	fmt.Println("=== Task History ===")
	fmt.Println()
	fmt.Printf("Database: %s\n", cfg.HistoryPath)
	fmt.Println()

	if len(counts) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Println("Operations:")
	for _, c := range counts {
		fmt.Printf("  %s: %d runs, %d failed\n", c.Operation, c.Total, c.Failed)
	}
	fmt.Println()

	fmt.Println("Recent runs:")
	for _, r := range runs {
		outcome := "ok " + r.ResultID
		if !r.Succeeded {
			outcome = "failed: " + r.Error
		}
		fmt.Printf("  %s  %-24s %6s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Operation,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			outcome,
		)
	}
	fmt.Println()

	return nil
}
