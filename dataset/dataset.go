// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset reads and writes the islands CSV. Only the coordinate columns
// are ever modified; every other column is carried through verbatim.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/islands-bharath/islands/spatial"
)

// Column names of the islands dataset.
const (
	ColumnName      = "Island Name"
	ColumnRegion    = "Group/Region"
	ColumnLatitude  = "Latitude"
	ColumnLongitude = "Longitude"
)

const utf8BOM = "\ufeff"

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// ErrExtraFields is returned when a row has cells without a header.
var ErrExtraFields = errors.New("row wider than header")

// Record is one island row. Index is its 0-based position in the file and is
// the identity used to patch coordinates back.
type Record struct {
	Index  int
	Name   string
	Region string

	// Point is nil while the record is unresolved.
	Point *spatial.Point

	// raw coordinate cells as read
	RawLatitude  string
	RawLongitude string

	values []string
	cols   *columns
}

type columns struct {
	name, region, lat, lng int
}

// Dataset is the full table: header plus every record, in file order.
type Dataset struct {
	Header  []string
	Records []*Record

	cols columns
}

// Resolved reports whether the record has a coordinate.
func (r *Record) Resolved() bool {
	return r.Point != nil
}

// SetPoint stores p, or marks the record unresolved when p is nil. Latitude and
// longitude always change together.
func (r *Record) SetPoint(p *spatial.Point) {
	if p == nil {
		r.Point = nil
		r.values[r.cols.lat] = ""
		r.values[r.cols.lng] = ""
		r.RawLatitude, r.RawLongitude = "", ""

		return
	}

	pt := *p
	r.Point = &pt
	r.values[r.cols.lat] = strconv.FormatFloat(pt.Lat, 'f', -1, 64)
	r.values[r.cols.lng] = strconv.FormatFloat(pt.Lng, 'f', -1, 64)
	r.RawLatitude, r.RawLongitude = r.values[r.cols.lat], r.values[r.cols.lng]
}

// Values returns a copy of the row cells, aligned with Dataset.Header.
func (r *Record) Values() []string {
	return append([]string(nil), r.values...)
}

// parseCoordinate returns a point only when both cells parse and form a valid coordinate.
func parseCoordinate(lat, lng string) *spatial.Point {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil
	}

	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil
	}

	p, err := spatial.NewPoint(la, lo)
	if err != nil {
		return nil
	}

	return p
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}

	return -1
}

// Read parses a dataset. The header must contain ColumnName and ColumnRegion;
// coordinate columns are appended when absent. Rows whose coordinates do not
// form a valid pair are loaded as unresolved and keep their cells verbatim
// until a lookup succeeds. Rows with more fields than the header are rejected.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty input: header row required")
	}

	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	width := len(header)
	d := &Dataset{Header: header}
	d.cols.name = columnIndex(header, ColumnName)
	d.cols.region = columnIndex(header, ColumnRegion)

	if d.cols.name < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnName)
	}

	if d.cols.region < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnRegion)
	}

	d.cols.lat = columnIndex(header, ColumnLatitude)
	if d.cols.lat < 0 {
		d.Header = append(d.Header, ColumnLatitude)
		d.cols.lat = len(d.Header) - 1
	}

	d.cols.lng = columnIndex(header, ColumnLongitude)
	if d.cols.lng < 0 {
		d.Header = append(d.Header, ColumnLongitude)
		d.cols.lng = len(d.Header) - 1
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(d.Records)+1, err)
		}

		if len(row) > width {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrExtraFields, len(d.Records)+1, len(row), width)
		}

		values := make([]string, len(d.Header))
		copy(values, row)

		rec := &Record{
			Index:        len(d.Records),
			Name:         strings.TrimSpace(values[d.cols.name]),
			Region:       strings.TrimSpace(values[d.cols.region]),
			RawLatitude:  values[d.cols.lat],
			RawLongitude: values[d.cols.lng],
			values:       values,
			cols:         &d.cols,
		}

		rec.Point = parseCoordinate(rec.RawLatitude, rec.RawLongitude)

		d.Records = append(d.Records, rec)
	}

	return d, nil
}

// ReadFile opens and parses path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return d, nil
}

// Write serializes the dataset with the same columns in the same order.
func (d *Dataset) Write(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(d.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range d.Records {
		if err := writer.Write(rec.values); err != nil {
			return fmt.Errorf("writing row %d: %w", rec.Index+1, err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteFile writes the dataset next to path and renames it into place, so the
// previous content survives a failed write.
func (d *Dataset) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	if err := d.Write(tmp); err != nil {
		return errors.Join(err, tmp.Close(), os.Remove(tmp.Name()))
	}

	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("closing temporary file: %w", err), os.Remove(tmp.Name()))
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil { // #nosec G302 - dataset is public data
		return errors.Join(fmt.Errorf("setting permissions: %w", err), os.Remove(tmp.Name()))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Join(fmt.Errorf("replacing %s: %w", path, err), os.Remove(tmp.Name()))
	}

	return nil
}

// Unresolved returns the records without coordinates, in file order.
func (d *Dataset) Unresolved() []*Record {
	var out []*Record

	for _, rec := range d.Records {
		if !rec.Resolved() {
			out = append(out, rec)
		}
	}

	return out
}

// ResetCoordinates marks every record unresolved.
func (d *Dataset) ResetCoordinates() {
	for _, rec := range d.Records {
		rec.SetPoint(nil)
	}
}

// Column returns the index of name in the header, or -1.
func (d *Dataset) Column(name string) int {
	return columnIndex(d.Header, name)
}

// CountResolved returns how many records have coordinates.
func (d *Dataset) CountResolved() int {
	return len(d.Records) - len(d.Unresolved())
}
