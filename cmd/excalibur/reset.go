// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <card-id>",
		Short: "Reset a card's scheduling progress back to new",
		Long: `Delete a card's scheduling record so it is treated as never reviewed.
The review log is kept; past ratings stay on record.`,
		Args: cobra.ExactArgs(1),
		RunE: runReset,
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cardID := args[0]

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		stats, err := app.Service.CardStats(cmd.Context(), cardID, time.Now())
		if err != nil {
			return err
		}
		if stats.Reps == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no progress to reset.\n", cardID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s (%d reviews, stability %.1f days)? [y/N] ", cardID, stats.Reps, stats.Stability)
		var answer string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil || (answer != "y" && answer != "Y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := app.Service.ResetCard(cmd.Context(), cardID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s reset to new.\n", cardID)
	return nil
}
