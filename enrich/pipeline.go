// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package enrich fills the coordinate columns of the islands dataset.
//
// Records are processed one at a time, in file order, and consecutive lookups
// are spaced by at least the configured politeness delay. A failed lookup never
// aborts the run and never erases a coordinate: retrying is done by running
// Incremental again later.
package enrich

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/islands-bharath/islands/dataset"
	"github.com/islands-bharath/islands/geocoding"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// DefaultDelay is the minimum pause between two lookups. Public services such
// as Nominatim ask for at most one request per second.
const DefaultDelay = time.Second

// Selector decides whether a record takes part in a run.
type Selector func(*dataset.Record) bool

// All selects every record.
func All(*dataset.Record) bool { return true }

// Unresolved selects records without coordinates. A record that failed in a
// previous run is indistinguishable from one never tried, so it is retried.
func Unresolved(r *dataset.Record) bool { return !r.Resolved() }

// Options configures a Pipeline.
type Options struct {
	// Delay between the end of one lookup and the start of the next, whatever
	// its outcome. Zero disables pacing.
	Delay time.Duration

	// ProgressBar shows a bar on stderr when it is a terminal.
	ProgressBar bool
}

// Pipeline geocodes dataset records through a Geocoder.
type Pipeline struct {
	geocoder geocoding.Geocoder
	limiter  *rate.Limiter
	options  Options
}

// New creates a pipeline. The pacing state lives in the pipeline, so runs
// executed back to back on the same pipeline are also spaced.
func New(g geocoding.Geocoder, options Options) *Pipeline {
	return &Pipeline{
		geocoder: g,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		options:  options,
	}
}

// arm makes the next lookup wait a full delay counted from now, however long
// the previous lookup took.
func (p *Pipeline) arm() {
	if p.options.Delay <= 0 {
		return
	}

	p.limiter = rate.NewLimiter(rate.Every(p.options.Delay), 1)
	p.limiter.Allow()
}

// Metrics summarizes a run.
type Metrics struct {
	Selected  int // records matching the selector
	Attempted int // lookups issued
	Resolved  int
	Failed    int
	Skipped   int // records rejected before any lookup

	// breakdown of Failed
	NotFound  int
	Throttled int // rate limited or out of quota
	TimedOut  int
}

// Merge combines two Metrics.
func (m *Metrics) Merge(o *Metrics) *Metrics {
	if o == nil {
		return m
	}

	m.Selected += o.Selected
	m.Attempted += o.Attempted
	m.Resolved += o.Resolved
	m.Failed += o.Failed
	m.Skipped += o.Skipped
	m.NotFound += o.NotFound
	m.Throttled += o.Throttled
	m.TimedOut += o.TimedOut

	return m
}

func (m Metrics) String() string {
	return fmt.Sprintf("%d selected, %d lookups, %d resolved, %d failed (%d not found, %d throttled, %d timed out), %d skipped",
		m.Selected, m.Attempted, m.Resolved, m.Failed, m.NotFound, m.Throttled, m.TimedOut, m.Skipped)
}

// Full clears every coordinate and geocodes all records.
func (p *Pipeline) Full(ctx context.Context, d *dataset.Dataset) (Metrics, error) {
	d.ResetCoordinates()

	return p.Run(ctx, d, All)
}

// Incremental geocodes only unresolved records. Resolved records are left untouched.
func (p *Pipeline) Incremental(ctx context.Context, d *dataset.Dataset) (Metrics, error) {
	return p.Run(ctx, d, Unresolved)
}

// Run geocodes the selected records in place. On success both coordinates are
// set; on failure the record keeps whatever it had. The only error returned is
// the context's (or the pacer's, when the context deadline comes before the
// next allowed lookup), in which case the dataset holds the progress made so far.
func (p *Pipeline) Run(ctx context.Context, d *dataset.Dataset, sel Selector) (Metrics, error) {
	var metrics Metrics

	var selected []*dataset.Record

	for _, rec := range d.Records {
		if sel(rec) {
			selected = append(selected, rec)
		}
	}

	metrics.Selected = len(selected)
	n := len(selected)

	log.Printf("Total islands to geocode: %d", n)

	var bar *progressbar.ProgressBar
	if p.options.ProgressBar && n > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for i, rec := range selected {
		if err := ctx.Err(); err != nil {
			return metrics, err
		}

		if bar != nil {
			_ = bar.Clear()
		}

		if err := p.process(ctx, i+1, n, rec, &metrics); err != nil {
			return metrics, err
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar: %v", err)
			}
		}
	}

	return metrics, nil
}

// process handles one record and logs exactly one outcome line for it.
func (p *Pipeline) process(ctx context.Context, i, n int, rec *dataset.Record, metrics *Metrics) error {
	if rec.Name == "" {
		metrics.Skipped++

		log.Printf("[%d/%d] Skipping row %d (%s): empty island name", i, n, rec.Index+1, rec.Region)

		return nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting before %s: %w", rec.Name, err)
	}

	metrics.Attempted++

	result, err := geocoding.Lookup(ctx, p.geocoder, rec.Name, rec.Region)
	p.arm()

	if err != nil {
		metrics.Failed++
		p.classify(err, metrics)

		log.Printf("Error geocoding %s: %v", rec.Name, err)
		log.Printf("[%d/%d] Geocoding: %s (%s)... -> Failed to geocode", i, n, rec.Name, rec.Region)

		return nil
	}

	point := result.Point
	rec.SetPoint(&point)
	metrics.Resolved++

	confidence := ""
	if result.Confidence != "" {
		confidence = " (" + result.Confidence + " confidence)"
	}

	log.Printf("[%d/%d] Geocoding: %s (%s)... -> Success: %v, %v%s", i, n, rec.Name, rec.Region, point.Lat, point.Lng, confidence)

	return nil
}

// classify counts the failure kind and warns on the first throttled lookup of a run.
func (p *Pipeline) classify(err error, metrics *Metrics) {
	switch {
	case geocoding.IsNotFoundError(err):
		metrics.NotFound++
	case geocoding.IsRateLimitError(err), geocoding.IsQuotaExceededError(err):
		metrics.Throttled++
		if metrics.Throttled == 1 {
			log.Printf("⚠️  The provider is throttling lookups (%v); consider a larger delay than %v", err, p.options.Delay)
		}
	case geocoding.IsTimeoutError(err):
		metrics.TimedOut++
	}
}
