// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/islands-bharath/islands/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const islandsCSV = `Island Name,Group/Region,Population,Latitude,Longitude
Ross Island,Andaman & Nicobar,0,11.6768,92.7621
Nowhere,Lakshadweep,12,,
`

// fakeNominatim knows Ross Island and Majuli and counts every lookup.
func fakeNominatim(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		places := []map[string]string{}

		q := r.URL.Query().Get("q")
		switch {
		case strings.HasPrefix(q, "Ross Island"):
			places = append(places, map[string]string{"lat": "11.6768", "lon": "92.7621"})
		case strings.HasPrefix(q, "Majuli"):
			places = append(places, map[string]string{"lat": "26.95", "lon": "94.17"})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(places)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "islands.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// execute runs the root command. Flags keep their values between runs, so
// every test passes the ones it relies on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func geocodeArgs(mode, input, output, endpoint string) []string {
	return []string{
		"geocode", mode,
		"--input", input,
		"--output", output,
		"--endpoint", endpoint,
		"--provider", "nominatim",
		"--delay", "0s",
		"--no-progress",
	}
}

func TestGeocodeFull(t *testing.T) {
	srv, hits := fakeNominatim(t)

	input := writeCSV(t, islandsCSV)
	output := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, geocodeArgs("full", input, output, srv.URL)...)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())

	d, err := dataset.ReadFile(output)
	require.NoError(t, err)
	require.Len(t, d.Records, 2)

	require.NotNil(t, d.Records[0].Point)
	assert.InDelta(t, 11.6768, d.Records[0].Point.Lat, 1e-9)
	assert.Nil(t, d.Records[1].Point)
	assert.Equal(t, "12", d.Records[1].Values()[d.Column("Population")])

	original, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, islandsCSV, string(original), "input must not be modified")
}

func TestGeocodeMissingInPlace(t *testing.T) {
	srv, hits := fakeNominatim(t)

	input := writeCSV(t, islandsCSV+"Majuli,,\n")

	_, err := execute(t, geocodeArgs("missing", input, "", srv.URL)...)
	require.NoError(t, err)

	// Ross Island already has coordinates.
	assert.Equal(t, int32(2), hits.Load())

	d, err := dataset.ReadFile(input)
	require.NoError(t, err)
	require.Len(t, d.Records, 3)

	assert.Equal(t, "11.6768", d.Records[0].RawLatitude)
	assert.Nil(t, d.Records[1].Point)
	require.NotNil(t, d.Records[2].Point)
	assert.InDelta(t, 94.17, d.Records[2].Point.Lng, 1e-9)
}

func TestGeocodeMissingNoop(t *testing.T) {
	srv, hits := fakeNominatim(t)

	content := "Island Name,Group/Region,Latitude,Longitude\nRoss Island,Andaman & Nicobar,11.6768,92.7621\n"
	input := writeCSV(t, content)

	_, err := execute(t, geocodeArgs("missing", input, "", srv.URL)...)
	require.NoError(t, err)

	assert.Zero(t, hits.Load())

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestGeocodeConfigFromEnv(t *testing.T) {
	srv, hits := fakeNominatim(t)

	input := writeCSV(t, islandsCSV)
	output := filepath.Join(t.TempDir(), "out.csv")

	t.Setenv("ISLANDS_USER_AGENT", "islands-env-test/1.0")

	args := geocodeArgs("full", input, output, srv.URL)
	_, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	assert.Equal(t, "islands-env-test/1.0", config.GetString("user-agent"))
}

func TestGeocodeErrors(t *testing.T) {
	srv, _ := fakeNominatim(t)
	input := writeCSV(t, islandsCSV)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing input file",
			args: geocodeArgs("full", filepath.Join(t.TempDir(), "absent.csv"), "", srv.URL),
			want: "absent.csv",
		},
		{
			name: "unknown provider",
			args: append(geocodeArgs("full", input, "", srv.URL), "--provider", "bogus"),
			want: "unknown provider",
		},
		{
			name: "negative delay",
			args: append(geocodeArgs("full", input, "", srv.URL), "--delay", "-1s"),
			want: "invalid delay",
		},
		{
			name: "missing required column",
			args: geocodeArgs("full", writeCSV(t, "Name,Latitude\nMajuli,\n"), "", srv.URL),
			want: "Island Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGeocodedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "islands_geocoded.csv"), geocodedPath(filepath.Join("data", "islands.csv")))
	assert.Equal(t, "islands_geocoded", geocodedPath("islands"))
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "--input", writeCSV(t, islandsCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "2 islands checked")

	out, err = execute(t, "check", "--input", writeCSV(t, islandsCSV+",Lakshadweep,,,\n"))
	require.ErrorIs(t, err, errInvalidDataset)
	assert.Contains(t, out, "row 3")
}

func TestCheckWithoutInput(t *testing.T) {
	_, err := execute(t, "check", "--input", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input file")
}

func TestStats(t *testing.T) {
	out, err := execute(t, "stats", "--input", writeCSV(t, islandsCSV), "--group", "")
	require.NoError(t, err)

	assert.Contains(t, out, "Andaman & Nicobar")
	assert.Contains(t, out, "Lakshadweep")
	assert.Contains(t, out, "All Groups")
	assert.Contains(t, out, "╭─")
}

func TestGeocodeName(t *testing.T) {
	srv, hits := fakeNominatim(t)

	out, err := execute(t, "geocode", "name", "Majuli", "Assam", "--endpoint", srv.URL, "--provider", "nominatim")
	require.NoError(t, err)
	assert.Equal(t, "26.95, 94.17\n", out)

	_, err = execute(t, "geocode", "name", "Atlantis", "--endpoint", srv.URL, "--provider", "nominatim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Atlantis, India"`)
	assert.Equal(t, int32(2), hits.Load())
}
