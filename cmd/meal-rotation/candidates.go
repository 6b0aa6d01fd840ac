package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meal-rotation/internal/history"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write sample candidate lists and the periods file if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			written, err := application.SeedCandidates()
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Println("Candidate files already present, nothing to seed.")
				return nil
			}
			for _, category := range written {
				fmt.Printf("Seeded %s\n", category)
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [category] [url|file]",
		Short: "Append the list items of an HTML page to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			category := history.Category(args[0])
			added, err := application.ImportCandidates(cmd.Context(), category, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added %d new candidates to %s\n", added, category)
			return nil
		},
	}
}

func importGhostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ghost [category]",
		Short: "Append the titles of Ghost posts with a tag to a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := history.Category(args[0])
			tag, _ := cmd.Flags().GetString("tag")
			if tag == "" {
				tag = strings.ReplaceAll(string(category), "_", "-")
			}

			application, closeFn, err := openApp(nil)
			if err != nil {
				return err
			}
			defer closeFn()

			added, err := application.ImportFromGhost(cmd.Context(), category, tag)
			if err != nil {
				return err
			}
			fmt.Printf("Added %d new candidates to %s from tag '%s'\n", added, category, tag)
			return nil
		},
	}

	cmd.Flags().StringP("tag", "t", "", "Ghost tag slug (default: category with dashes)")

	return cmd
}
