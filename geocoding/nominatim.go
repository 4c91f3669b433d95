// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/islands-bharath/islands/spatial"
	"github.com/islands-bharath/islands/utils/httputils"
)

const (
	// DefaultNominatimEndpoint is the public OpenStreetMap search endpoint.
	DefaultNominatimEndpoint = "https://nominatim.openstreetmap.org/search"

	// DefaultTimeout bounds each lookup.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the pipeline to the lookup service.
	DefaultUserAgent = "islands-bharath-geocoder/1.0"
)

// NominatimOptions configures NominatimGeocoder.
type NominatimOptions struct {
	// Endpoint of the search API. Defaults to DefaultNominatimEndpoint.
	Endpoint string

	// Client performs the request. When nil, one is built from UserAgent and Timeout.
	Client *http.Client

	UserAgent string
	Timeout   time.Duration
}

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	endpoint   string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(options NominatimOptions) *NominatimGeocoder {
	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = DefaultNominatimEndpoint
	}

	client := options.Client
	if client == nil {
		userAgent := options.UserAgent
		if userAgent == "" {
			userAgent = DefaultUserAgent
		}

		timeout := options.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		client = httputils.NewClient(httputils.ClientOptions{
			UserAgent: userAgent,
			Timeout:   timeout,
		})
	}

	return &NominatimGeocoder{endpoint: endpoint, httpClient: client}
}

// nominatim serializes coordinates as strings.
type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, name, region string) (*Result, error) {
	params := url.Values{}
	params.Set("q", Query(name, region))
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeMalformed, Message: "decoding response", Err: err}
	}

	if len(places) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for %q", Query(name, region)),
		}
	}

	place := places[0]

	lat, errLat := strconv.ParseFloat(place.Lat, 64)
	lng, errLng := strconv.ParseFloat(place.Lon, 64)

	if errLat != nil || errLng != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeMalformed,
			Message: fmt.Sprintf("unparseable coordinate (%q, %q)", place.Lat, place.Lon),
		}
	}

	point, err := spatial.NewPoint(lat, lng)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeMalformed, Message: "coordinate out of range", Err: err}
	}

	// Nominatim importance is in [0,1]; islands with a Wikipedia article score high.
	confidence := "low"

	switch {
	case place.Importance >= 0.5:
		confidence = "high"
	case place.Importance >= 0.3:
		confidence = "medium"
	}

	return &Result{
		Point:       *point,
		Confidence:  confidence,
		Provider:    "nominatim",
		DisplayName: place.DisplayName,
	}, nil
}
