// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/islands-bharath/islands/dataset"
	"github.com/spf13/cobra"
)

var errInvalidDataset = errors.New("dataset has errors")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report inconsistencies in the islands dataset",
	Long: `
Reports empty or duplicated island names, coordinates with only one side set or
out of range, and coordinates that fall outside India. Exits with an error when
any finding other than a warning is reported.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, err := inputPath()
		if err != nil {
			return err
		}

		d, err := dataset.ReadFile(input)
		if err != nil {
			return err
		}

		issues := dataset.Validate(d)
		out := cmd.OutOrStdout()

		for _, issue := range issues {
			fmt.Fprintln(out, issue)
		}

		if dataset.HasErrors(issues) {
			fmt.Fprintf(out, "❌ %d issues in %d islands\n", len(issues), len(d.Records))

			return errInvalidDataset
		}

		fmt.Fprintf(out, "✅ %d islands checked, %d warnings\n", len(d.Records), len(issues))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
