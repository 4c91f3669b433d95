// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package explorer serves read-only views of an enriched islands dataset: table
// rows, per-group statistics and map layers. Rows without a valid coordinate are
// kept in tables and statistics but never appear on the map.
package explorer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/islands-bharath/islands/dataset"
	"github.com/islands-bharath/islands/spatial"
	"github.com/islands-bharath/islands/utils/textutils"
	"github.com/uber/h3-go/v4"
)

// Columns read for statistics when present.
const (
	ColumnPopulation = "Population"
	ColumnArea       = "Area (sq km)"
)

// H3 resolutions materialized per island.
const (
	MinCellResolution = 3
	MaxCellResolution = 7
)

// Filter narrows a view. Empty fields match everything.
type Filter struct {
	Group  string
	Island string
}

// GroupStats aggregates the islands of one Group/Region.
type GroupStats struct {
	Group      string  `json:"group"`
	Islands    int     `json:"islands"`
	Resolved   int     `json:"resolved"`
	Unresolved int     `json:"unresolved"`
	Population float64 `json:"population"`
	Area       float64 `json:"area"`
}

// Store keeps the dataset in an in-memory duckdb table for filtering and
// aggregation. Full rows are served from the dataset itself.
type Store struct {
	db *sql.DB
	ds *dataset.Dataset
}

// NewStore wraps db. Call Load before querying.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Dataset returns the loaded dataset.
func (s *Store) Dataset() *dataset.Dataset {
	return s.ds
}

// CreateSchema creates the islands table.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS islands (
			row_id INTEGER PRIMARY KEY,
			name VARCHAR NOT NULL,
			region VARCHAR NOT NULL,
			latitude DOUBLE,
			longitude DOUBLE,
			population DOUBLE,
			area DOUBLE,
			h3_res3 BIGINT,
			h3_res4 BIGINT,
			h3_res5 BIGINT,
			h3_res6 BIGINT,
			h3_res7 BIGINT
		);
	`)
	if err != nil {
		return fmt.Errorf("creating islands table: %w", err)
	}

	return nil
}

func numericCell(values []string, col int) sql.NullFloat64 {
	if col < 0 {
		return sql.NullFloat64{}
	}

	v, ok := textutils.ParseNumber(values[col])

	return sql.NullFloat64{Float64: v, Valid: ok}
}

func cellsOf(p *spatial.Point) ([]sql.NullInt64, error) {
	cells := make([]sql.NullInt64, 0, MaxCellResolution-MinCellResolution+1)

	for res := MinCellResolution; res <= MaxCellResolution; res++ {
		if p == nil {
			cells = append(cells, sql.NullInt64{})

			continue
		}

		cell, err := p.Cell(res)
		if err != nil {
			return nil, err
		}

		cells = append(cells, sql.NullInt64{Int64: int64(cell), Valid: true})
	}

	return cells, nil
}

// Load replaces the table content with d.
func (s *Store) Load(d *dataset.Dataset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM islands`); err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("clearing islands: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO islands (
			row_id, name, region, latitude, longitude, population, area,
			h3_res3, h3_res4, h3_res5, h3_res6, h3_res7
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	popCol := d.Column(ColumnPopulation)
	areaCol := d.Column(ColumnArea)

	for _, rec := range d.Records {
		var lat, lng sql.NullFloat64
		if rec.Point != nil {
			lat = sql.NullFloat64{Float64: rec.Point.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: rec.Point.Lng, Valid: true}
		}

		cells, err := cellsOf(rec.Point)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("row %d: %w", rec.Index+1, err)
		}

		values := rec.Values()

		if _, err := stmt.Exec(
			rec.Index, rec.Name, rec.Region, lat, lng,
			numericCell(values, popCol), numericCell(values, areaCol),
			cells[0], cells[1], cells[2], cells[3], cells[4],
		); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("inserting row %d: %w", rec.Index+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing islands: %w", err)
	}

	s.ds = d

	return nil
}

// Groups lists the distinct non-empty groups, sorted.
func (s *Store) Groups() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT region FROM islands WHERE region <> '' ORDER BY region`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []string{}

	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}

		groups = append(groups, g)
	}

	return groups, rows.Err()
}

func (f Filter) where(extra ...string) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if f.Group != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, f.Group)
	}

	if f.Island != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, f.Island)
	}

	clauses = append(clauses, extra...)
	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) records(query string, args ...any) ([]*dataset.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*dataset.Record{}

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		records = append(records, s.ds.Records[id])
	}

	return records, rows.Err()
}

// Islands returns the records matching f, in file order.
func (s *Store) Islands(f Filter) ([]*dataset.Record, error) {
	where, args := f.where()

	return s.records(`SELECT row_id FROM islands`+where+` ORDER BY row_id`, args...)
}

// Mappable returns the records matching f that have a coordinate.
func (s *Store) Mappable(f Filter) ([]*dataset.Record, error) {
	where, args := f.where("latitude IS NOT NULL", "longitude IS NOT NULL")

	return s.records(`SELECT row_id FROM islands`+where+` ORDER BY row_id`, args...)
}

// Missing returns the records matching f without a coordinate.
func (s *Store) Missing(f Filter) ([]*dataset.Record, error) {
	where, args := f.where("(latitude IS NULL OR longitude IS NULL)")

	return s.records(`SELECT row_id FROM islands`+where+` ORDER BY row_id`, args...)
}

// Stats aggregates per group, sorted by group name. Population and area only
// sum values that parse as numbers.
func (s *Store) Stats(f Filter) ([]GroupStats, error) {
	where, args := f.where()

	rows, err := s.db.Query(`
		SELECT
			region,
			COUNT(*),
			COUNT(latitude),
			COALESCE(SUM(population), 0),
			COALESCE(SUM(area), 0)
		FROM islands`+where+`
		GROUP BY region
		ORDER BY region
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []GroupStats{}

	for rows.Next() {
		var g GroupStats
		if err := rows.Scan(&g.Group, &g.Islands, &g.Resolved, &g.Population, &g.Area); err != nil {
			return nil, err
		}

		g.Unresolved = g.Islands - g.Resolved
		stats = append(stats, g)
	}

	return stats, rows.Err()
}

// Total sums a list of GroupStats.
func Total(stats []GroupStats) GroupStats {
	total := GroupStats{Group: "All Groups"}

	for _, g := range stats {
		total.Islands += g.Islands
		total.Resolved += g.Resolved
		total.Unresolved += g.Unresolved
		total.Population += g.Population
		total.Area += g.Area
	}

	return total
}

// CellCount is the number of mapped islands inside one H3 cell.
type CellCount struct {
	Cell    string        `json:"cell"`
	Center  spatial.Point `json:"center"`
	Islands int           `json:"islands"`
	Names   []string      `json:"names"`
}

// Cells groups mapped islands by their H3 cell at res.
func (s *Store) Cells(res int, f Filter) ([]CellCount, error) {
	if res < MinCellResolution || res > MaxCellResolution {
		return nil, fmt.Errorf("resolution must be between %d and %d", MinCellResolution, MaxCellResolution)
	}

	col := fmt.Sprintf("h3_res%d", res)
	where, args := f.where(col + " IS NOT NULL")

	rows, err := s.db.Query(`
		SELECT `+col+`, COUNT(*), AVG(latitude), AVG(longitude), LIST(name ORDER BY row_id)
		FROM islands`+where+`
		GROUP BY `+col+`
		ORDER BY COUNT(*) DESC, `+col, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := []CellCount{}

	for rows.Next() {
		var (
			id    int64
			c     CellCount
			names any
		)

		if err := rows.Scan(&id, &c.Islands, &c.Center.Lat, &c.Center.Lng, &names); err != nil {
			return nil, err
		}

		c.Cell = h3.Cell(id).String()

		if list, ok := names.([]any); ok {
			for _, n := range list {
				if name, ok := n.(string); ok {
					c.Names = append(c.Names, name)
				}
			}
		}

		cells = append(cells, c)
	}

	return cells, rows.Err()
}
