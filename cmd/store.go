// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"

	"github.com/islands-bharath/islands/dataset"
	"github.com/islands-bharath/islands/explorer"

	_ "github.com/duckdb/duckdb-go/v2"
)

// openStore loads the input CSV into an in-memory explorer store. The
// returned database must be closed by the caller.
func openStore() (*sql.DB, *explorer.Store, error) {
	input, err := inputPath()
	if err != nil {
		return nil, nil, err
	}

	d, err := dataset.ReadFile(input)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	store := explorer.NewStore(db)
	if err := store.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := store.Load(d); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("loading %s: %w", input, err)
	}

	return db, store, nil
}
