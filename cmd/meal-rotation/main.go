package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "meal-rotation",
		Short:         "Weekly meal picker that avoids recent repeats",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(importGhostCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads configuration from the environment, lets the command adjust
// it, and wires the application. The caller must run the returned close
// function.
func openApp(adjust func(*config.Config) error) (*app.App, func() error, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if adjust != nil {
		if err := adjust(cfg); err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return app.Build(cfg)
}
