// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/islands-bharath/islands/explorer"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the islands tables, statistics and map layers",
	Long: `
Loads the CSV once and serves it read-only under /api. Islands without
coordinates appear in tables and statistics but not in map layers.
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		addr := config.GetString("addr")
		d := store.Dataset()

		log.Printf("✅ Loaded %d islands, %d with coordinates", len(d.Records), d.CountResolved())
		fmt.Println("🗺️  Islands explorer starting...")
		fmt.Printf("📍 Open http://%s/api/stats in your browser\n", addr)

		return explorer.NewServer(store).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "localhost:8080", "Address to listen on")
}
