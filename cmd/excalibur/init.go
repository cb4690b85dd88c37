// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/internal/config"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// starterManifest seeds a fresh install with a commented cards.yaml so the
// first `excalibur due` has something to show.
const starterManifest = `# Excalibur deck manifest.
# Each entry names one card; tags are optional and drive filtered sessions.
cards:
  - id: example-card
    tags: [getting-started]
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory, config file and a starter deck manifest",
		Long: `Prepare a fresh Excalibur install:
  1. Create the data directory.
  2. Write a commented default config to ~/.config/excalibur/excalibur.yaml.
  3. Write a starter cards.yaml deck manifest.

Existing files are left alone unless --force is given.`,
		RunE: runInit,
	}

	cmd.Flags().Bool("force", false, "overwrite an existing deck manifest")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return xerr.Errorf(xerr.CodeCLISetupFailure, "creating data directory %s: %w", cfg.DataDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Data directory: %s\n", cfg.DataDir)

	if path := config.BootstrapConfig(); path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n", path)
	}

	manifestPath := cfg.ManifestPath()
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(manifestPath); err == nil && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "Deck manifest already exists: %s\n", manifestPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return xerr.Errorf(xerr.CodeCLISetupFailure, "creating manifest directory: %w", err)
	}
	if err := os.WriteFile(manifestPath, []byte(starterManifest), 0o644); err != nil {
		return xerr.Errorf(xerr.CodeCLISetupFailure, "writing deck manifest %s: %w", manifestPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deck manifest written to: %s\n", manifestPath)

	return nil
}
