// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "Show how many cards are due per tag",
		RunE:  runTags,
	}
}

func runTags(cmd *cobra.Command, _ []string) error {
	app, err := wireFromCommand(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	counts, err := app.Service.DueCounts(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	if len(counts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tagged cards are due.")
		return nil
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", tag, counts[tag])
	}
	return nil
}
