package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meal-rotation/internal/config"
	"meal-rotation/internal/history"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/report"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Pick one meal per category for a week and record it",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}

	cmd.Flags().IntP("week", "w", 0, "Week index to plan (default: current week)")
	cmd.Flags().IntP("lookback", "l", 0, "Previous weeks whose picks are avoided; the planned week always counts (default: MEAL_LOOKBACK_WEEKS)")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible picks (0 picks a time-based seed and prints it)")
	cmd.Flags().Bool("dry-run", false, "Show the picks without recording them")
	cmd.Flags().Bool("redo", false, "Replace the picks already recorded for the week")
	cmd.Flags().Bool("publish", false, "Post the plan to Ghost as a draft")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dryRun, _ := flags.GetBool("dry-run")
	redo, _ := flags.GetBool("redo")
	asJSON, _ := flags.GetBool("json")
	publish, _ := flags.GetBool("publish")
	if dryRun && redo {
		return fmt.Errorf("--dry-run and --redo cannot be combined")
	}

	application, closeFn, err := openApp(func(cfg *config.Config) error {
		cfg.PrintSeed = true
		if flags.Changed("lookback") {
			cfg.LookbackWeeks, _ = flags.GetInt("lookback")
		}
		if flags.Changed("seed") {
			cfg.Seed, _ = flags.GetInt64("seed")
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer closeFn()

	week := application.CurrentWeek()
	if flags.Changed("week") {
		n, _ := flags.GetInt("week")
		week = history.WeekIndex(n)
	}

	var plan *planner.WeekPlan
	if redo {
		plan, err = application.ReplanWeek(cmd.Context(), week)
	} else {
		plan, err = application.PlanWeek(cmd.Context(), week, dryRun)
	}
	if err != nil {
		return err
	}
	if publish {
		post, err := application.PublishPlan(cmd.Context(), plan)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Published draft %s %s\n", post.ID, post.URL)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	fmt.Print(report.FormatText(plan))
	if dryRun {
		fmt.Println("\n(dry run: history not updated)")
	}
	return nil
}
