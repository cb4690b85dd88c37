// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards due for review, in presentation order",
		RunE:  runDue,
	}

	cmd.Flags().StringSliceP("tag", "t", nil, "only cards carrying at least one of these tags")
	cmd.Flags().IntP("limit", "n", 0, "truncate the queue (0 = no limit)")

	return cmd
}

func runDue(cmd *cobra.Command, _ []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	tags, _ := cmd.Flags().GetStringSlice("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	queue, err := app.Service.GetDueQueue(cmd.Context(), time.Now(), tags, limit)
	if err != nil {
		return err
	}

	if len(queue) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing due. Come back later.")
		return nil
	}

	for i, id := range queue {
		fmt.Fprintf(cmd.OutOrStdout(), "%3d. %s\n", i+1, id)
	}
	suffix := ""
	if len(tags) > 0 {
		suffix = " (tags: " + strings.Join(tags, ", ") + ")"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d card(s) due%s\n", len(queue), suffix)
	return nil
}
