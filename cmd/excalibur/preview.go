// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/pkg/types"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <card-id>",
		Short: "Show the interval each grade would schedule, without rating",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cardID := args[0]
	previews, err := app.Service.PreviewIntervals(cmd.Context(), cardID, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", cardID)
	for _, r := range types.AllRatings() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-5s -> %s\n", r, formatDays(previews[r]))
	}
	return nil
}
