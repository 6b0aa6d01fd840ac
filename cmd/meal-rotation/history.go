package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meal-rotation/internal/report"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the picks recorded for recent weeks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, _ := cmd.Flags().GetInt("weeks")
			if weeks < 1 {
				return fmt.Errorf("--weeks must be at least 1, got %d", weeks)
			}

			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			rec, err := application.History(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(report.FormatHistory(rec, application.CurrentWeek(), weeks))
			return nil
		},
	}

	cmd.Flags().IntP("weeks", "n", 8, "Number of weeks to show")

	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := application.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		},
	}
}
