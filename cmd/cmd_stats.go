// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/islands-bharath/islands/explorer"
	"github.com/islands-bharath/islands/utils/textutils"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-group island counts, coverage, population and area",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := store.Stats(explorer.Filter{Group: config.GetString("group")})
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}

		printStats(cmd.OutOrStdout(), stats)

		return nil
	},
}

func formatAmount(v float64) string {
	return textutils.FormatInt(int64(math.Round(v)))
}

func printStats(w io.Writer, stats []explorer.GroupStats) {
	const row = "│ %-32s │ %7s │ %8s │ %10s │ %12s │ %10s │\n"

	a, b, c := strings.Repeat("─", 32), strings.Repeat("─", 7), strings.Repeat("─", 8)
	d, e, f := strings.Repeat("─", 10), strings.Repeat("─", 12), strings.Repeat("─", 10)

	fmt.Fprintf(w, "╭─%s─┬─%s─┬─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, c, d, e, f)
	fmt.Fprintf(w, row, "Group/Region", "Islands", "Resolved", "Unresolved", "Population", "Area (km²)")
	fmt.Fprintf(w, "├─%s─┼─%s─┼─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, c, d, e, f)

	for _, g := range append(stats, explorer.Total(stats)) {
		fmt.Fprintf(w, row,
			g.Group,
			textutils.FormatInt(int64(g.Islands)),
			textutils.FormatInt(int64(g.Resolved)),
			textutils.FormatInt(int64(g.Unresolved)),
			formatAmount(g.Population),
			formatAmount(g.Area),
		)
	}

	fmt.Fprintf(w, "╰─%s─┴─%s─┴─%s─┴─%s─┴─%s─┴─%s─╯\n", a, b, c, d, e, f)
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("group", "", "Only report this Group/Region")
}
