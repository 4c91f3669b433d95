// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleMapsGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Majuli, Assam, India", q.Get("address"))
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "in", q.Get("region"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Majuli, Assam, India",
				"geometry": {"location": {"lat": 26.95, "lng": 94.17}, "location_type": "APPROXIMATE"}
			}]
		}`))
	}))
	defer srv.Close()

	g := NewGoogleMapsGeocoder("secret", srv.URL, nil)

	result, err := g.Geocode(context.Background(), "Majuli", "Assam")
	require.NoError(t, err)
	assert.InDelta(t, 26.95, result.Point.Lat, 1e-9)
	assert.InDelta(t, 94.17, result.Point.Lng, 1e-9)
	assert.Equal(t, "low", result.Confidence)
	assert.Equal(t, "google_maps", result.Provider)
}

func TestGoogleMapsGeocodeStatuses(t *testing.T) {
	tests := []struct {
		status   string
		wantType ErrorType
	}{
		{"ZERO_RESULTS", ErrorTypeNotFound},
		{"OVER_QUERY_LIMIT", ErrorTypeQuotaExceeded},
		{"REQUEST_DENIED", ErrorTypeInvalidRequest},
		{"UNKNOWN_ERROR", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + tt.status + `","results":[]}`))
			}))
			defer srv.Close()

			_, err := NewGoogleMapsGeocoder("k", srv.URL, nil).Geocode(context.Background(), "Majuli", "")

			var geoErr *GeocodingError
			require.ErrorAs(t, err, &geoErr)
			assert.Equal(t, tt.wantType, geoErr.Type)
		})
	}
}
