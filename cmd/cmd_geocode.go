// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/islands-bharath/islands/dataset"
	"github.com/islands-bharath/islands/enrich"
	"github.com/islands-bharath/islands/geocoding"
	"github.com/islands-bharath/islands/utils/httputils"
	"github.com/spf13/cobra"
)

const (
	providerNominatim = "nominatim"
	providerGoogle    = "google"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve island names into coordinates",
	Long: `
Looks up every island through the configured provider and stores the resulting
latitude and longitude next to the original columns. Lookups run one at a time,
spaced by --delay. A failed lookup leaves the row without coordinates.
`,
}

var geocodeFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Geocode every island, discarding existing coordinates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runGeocode(cmd.Context(), cmd.ErrOrStderr(), true)
	},
}

var geocodeMissingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Geocode only the islands without coordinates",
	Long: `
Retries every island whose latitude or longitude is missing or unparseable.
Rows that already have coordinates are never modified. Without --output the
input file is updated in place.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runGeocode(cmd.Context(), cmd.ErrOrStderr(), false)
	},
}

var geocodeNameCmd = &cobra.Command{
	Use:   "name <island> [region]",
	Short: "Look up a single island and print its coordinates",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		region := ""
		if len(args) > 1 {
			region = args[1]
		}

		g, err := newGeocoder(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		p, ok := geocoding.Resolve(cmd.Context(), g, args[0], region)
		if !ok {
			return fmt.Errorf("no coordinates for %q", geocoding.Query(args[0], region))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%v, %v\n", p.Lat, p.Lng)

		return nil
	},
}

// geocodedPath derives the default output of a full run: data.csv -> data_geocoded.csv.
func geocodedPath(input string) string {
	ext := filepath.Ext(input)

	return strings.TrimSuffix(input, ext) + "_geocoded" + ext
}

func outputPath(input string, full bool) string {
	if output := config.GetString("output"); output != "" {
		return output
	}

	if full {
		return geocodedPath(input)
	}

	return input
}

func newGeocoder(ctx context.Context, stderr io.Writer) (geocoding.Geocoder, error) {
	userAgent := config.GetString("user-agent")
	if userAgent == "" {
		userAgent = "islands-bharath-geocoder/" + Version
	}

	timeout := config.GetDuration("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %v", timeout)
	}

	options := httputils.ClientOptions{
		UserAgent: userAgent,
		Timeout:   timeout,
		TraceBody: config.GetBool("trace-http-body"),
	}
	if config.GetBool("trace-http") || options.TraceBody {
		options.Trace = stderr
	}

	client := httputils.NewClient(options)

	switch provider := config.GetString("provider"); provider {
	case providerNominatim, "":
		return geocoding.NewNominatimGeocoder(geocoding.NominatimOptions{
			Endpoint: config.GetString("endpoint"),
			Client:   client,
		}), nil
	case providerGoogle:
		apiKey := config.GetString("google-api-key")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_MAPS_API_KEY")
		}

		if apiKey == "" {
			var err error

			apiKey, err = geocoding.APIKeyFromADC(ctx, config.GetString("google-project"))
			if err != nil {
				return nil, fmt.Errorf("no Google Maps API key: %w", err)
			}
		}

		return geocoding.NewGoogleMapsGeocoder(apiKey, config.GetString("endpoint"), client), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", provider, providerNominatim, providerGoogle)
	}
}

func runGeocode(ctx context.Context, stderr io.Writer, full bool) error {
	input, err := inputPath()
	if err != nil {
		return err
	}

	delay := config.GetDuration("delay")
	if delay < 0 {
		return fmt.Errorf("invalid delay %v", delay)
	}

	output := outputPath(input, full)

	d, err := dataset.ReadFile(input)
	if err != nil {
		return err
	}

	g, err := newGeocoder(ctx, stderr)
	if err != nil {
		return err
	}

	if delay < enrich.DefaultDelay && config.GetString("provider") != providerGoogle {
		log.Printf("⚠️  Delay %v is below the public Nominatim usage policy of one request per second", delay)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := enrich.New(g, enrich.Options{
		Delay:       delay,
		ProgressBar: !config.GetBool("no-progress"),
	})

	run := p.Incremental
	if full {
		run = p.Full
	}

	metrics, err := run(ctx, d)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("🛑 Interrupted after %s; %s was not written", metrics, output)
		}

		return fmt.Errorf("geocoding %s: %w", input, err)
	}

	if err := d.WriteFile(output); err != nil {
		return err
	}

	log.Printf("✅ Geocoding complete! %s. %d/%d islands have coordinates. Saved to %s",
		metrics, d.CountResolved(), len(d.Records), output)

	return nil
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.AddCommand(geocodeFullCmd)
	geocodeCmd.AddCommand(geocodeMissingCmd)
	geocodeCmd.AddCommand(geocodeNameCmd)

	flags := geocodeCmd.PersistentFlags()
	flags.StringP("output", "o", "", "CSV to write (full: <input>_geocoded.csv, missing: the input file)")
	flags.Duration("delay", enrich.DefaultDelay, "Pause between successive lookups")
	flags.Duration("timeout", geocoding.DefaultTimeout, "Timeout of a single lookup")
	flags.String("user-agent", "", "Client identifier sent with every lookup (default islands-bharath-geocoder/<version>)")
	flags.String("provider", providerNominatim, "Geocoding provider: nominatim or google")
	flags.String("endpoint", "", "Override the provider endpoint")
	flags.String("google-api-key", "", "Google Maps API key (default $GOOGLE_MAPS_API_KEY, then Application Default Credentials)")
	flags.String("google-project", "", "Project holding the Google Maps API key when discovered through credentials")
	flags.Bool("trace-http", false, "Dump requests and responses to stderr")
	flags.Bool("trace-http-body", false, "Include response bodies in the HTTP trace")
	flags.Bool("no-progress", false, "Disable the progress bar")
}
