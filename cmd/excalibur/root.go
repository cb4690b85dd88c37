// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/internal/config"
)

// NewRootCmd creates the root excalibur command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "excalibur",
		Short:         "Excalibur — spaced-repetition flashcard scheduler",
		Long:          "Excalibur schedules flashcard reviews with a forgetting-curve memory model and drives the rating loop that feeds your recall back into it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Register subcommands
	root.AddCommand(
		newInitCmd(),
		newDueCmd(),
		newReviewCmd(),
		newPreviewCmd(),
		newStatsCmd(),
		newTagsCmd(),
		newResetCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the configuration for a command invocation: an
// explicit --config path, else the default location (bootstrapped with a
// commented template on first run), with --data-dir overriding the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(defaultPath); err == nil {
			cfgPath = defaultPath
		} else if path := config.BootstrapConfig(); path != "" {
			cfgPath = path
		}
		// No config file anywhere — defaults and env vars still apply.
	}

	config.WarnInsecurePermissions(cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}
