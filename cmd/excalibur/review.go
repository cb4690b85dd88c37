// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/internal/review"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run a review session over the due queue",
		Long: `Walk the due queue card by card. For each card, press enter to flip it,
then grade your recall:

  1 / again   forgot it
  2 / hard    recalled with difficulty
  3 / good    recalled
  4 / easy    trivial

'h' flips back to the question, 'q' ends the session early. Ratings already
given are kept when you quit.`,
		RunE: runReview,
	}

	cmd.Flags().StringSliceP("tag", "t", nil, "only cards carrying at least one of these tags")
	cmd.Flags().IntP("limit", "n", 0, "cap the session length (0 = no limit)")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	tags, _ := cmd.Flags().GetStringSlice("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()
	sess, err := app.Service.StartSession(ctx, time.Now(), tags, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	for !sess.Phase().Terminal() {
		cardID := sess.Current()
		rated, total := sess.Progress()

		switch sess.Phase() {
		case review.PhaseQuestion:
			fmt.Fprintf(out, "\n[%d/%d] %s\n", rated+1, total, cardID)
			fmt.Fprint(out, "enter = flip, q = quit: ")
			line, ok := readLine(in)
			if !ok || line == "q" {
				_ = sess.Cancel()
				continue
			}
			if err := sess.Reveal(); err != nil {
				return err
			}

		case review.PhaseAnswer:
			if err := promptRating(ctx, app.Service, sess, out, in, cardID); err != nil {
				return err
			}
		}
	}

	rated, _ := sess.Progress()
	fmt.Fprintf(out, "\nSession %s: %d card(s) rated.\n", sess.Phase(), rated)
	return nil
}

// promptRating shows the interval each grade would commit, reads one grade
// and applies it. Unrecognized input re-prompts; a failed write re-prompts
// with the same card so the rating can be retried.
func promptRating(ctx context.Context, svc *review.Service, sess *review.Session, out io.Writer, in *bufio.Scanner, cardID string) error {
	now := time.Now()
	previews, err := svc.PreviewIntervals(ctx, cardID, now)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  1 again %s   2 hard %s   3 good %s   4 easy %s\n",
		formatDays(previews[types.RatingAgain]),
		formatDays(previews[types.RatingHard]),
		formatDays(previews[types.RatingGood]),
		formatDays(previews[types.RatingEasy]))
	fmt.Fprint(out, "grade (h = flip back, q = quit): ")

	line, ok := readLine(in)
	if !ok || line == "q" {
		return sess.Cancel()
	}
	if line == "h" {
		return sess.Hide()
	}

	rating, ok := types.ParseRating(line)
	if !ok {
		fmt.Fprintf(out, "unrecognized grade %q\n", line)
		return nil
	}

	res, err := sess.Rate(ctx, rating, time.Now())
	if err != nil {
		fmt.Fprintf(out, "rating not applied: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "-> %s, next review in %s\n", res.LearningState, formatDays(res.ScheduledDays))
	return nil
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(in.Text())), true
}

func formatDays(days int) string {
	if days == 1 {
		return "1d"
	}
	return fmt.Sprintf("%dd", days)
}
