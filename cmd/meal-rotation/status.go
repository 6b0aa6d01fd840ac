package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent plan runs and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("runs")

			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			status, err := application.Status(cmd.Context(), limit)
			if err != nil {
				return err
			}

			fmt.Println("Meal Rotation Status")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Current week:   %d\n", status.Week)
			fmt.Printf("  Recorded weeks: %d\n", status.Weeks)
			fmt.Printf("  Data on disk:   %s\n", status.Health.DataDiskSize)

			if len(status.Runs) == 0 {
				fmt.Println("\nRuns: (none)")
				return nil
			}
			fmt.Println("\nRecent runs:")
			now := time.Now()
			for _, r := range status.Runs {
				mode := ""
				if r.DryRun {
					mode = " dry-run"
				}
				fmt.Printf("  week %-6d %d picks, %d skipped%s (%s, %s)\n",
					r.Week, r.Picks, r.Skipped, mode, r.Latency, humanize.RelTime(r.Timestamp, now, "ago", "from now"))
			}
			return nil
		},
	}

	cmd.Flags().IntP("runs", "n", 10, "Number of runs to show")

	return cmd
}

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old plan runs from the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			removed, err := application.CleanupRuns(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d plan runs older than %d days.\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntP("days", "d", 30, "Keep runs from the last N days")

	return cmd
}
