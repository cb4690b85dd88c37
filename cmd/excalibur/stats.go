// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/pkg/types"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [card-id]",
		Short: "Show overall retention statistics, or one card's scheduling record",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 {
		return printCardStats(cmd, app, args[0])
	}
	return printRetentionStats(cmd, app)
}

func printCardStats(cmd *cobra.Command, app *App, cardID string) error {
	stats, err := app.Service.CardStats(cmd.Context(), cardID, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", stats.CardID)
	fmt.Fprintf(out, "  state:          %s\n", stats.LearningState)
	fmt.Fprintf(out, "  reviews:        %d (%d lapses)\n", stats.Reps, stats.Lapses)
	if stats.Reps == 0 {
		fmt.Fprintln(out, "  never reviewed")
		return nil
	}
	fmt.Fprintf(out, "  stability:      %.2f days\n", stats.Stability)
	fmt.Fprintf(out, "  difficulty:     %.2f / 10\n", stats.Difficulty)
	fmt.Fprintf(out, "  recall chance:  %.1f%%\n", stats.Retrievability*100)
	fmt.Fprintf(out, "  last reviewed:  %s\n", stats.LastReviewedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  due:            %s\n", stats.DueAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func printRetentionStats(cmd *cobra.Command, app *App) error {
	stats, err := app.Service.RetentionStats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if stats.Total == 0 {
		fmt.Fprintln(out, "No reviews recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "reviews:    %d\n", stats.Total)
	fmt.Fprintf(out, "retention:  %.1f%%\n", stats.Retention*100)
	for _, r := range types.AllRatings() {
		fmt.Fprintf(out, "  %-5s %d\n", r, stats.ByRating[r])
	}
	return nil
}
