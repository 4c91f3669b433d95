// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/islands-bharath/islands/spatial"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultGoogleEndpoint is the Google Maps Geocoding API.
const DefaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleKeyDisplayName is the display name of the API key looked up through ADC.
const GoogleKeyDisplayName = "Islands Geocoding Key"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. An empty endpoint
// selects DefaultGoogleEndpoint.
func NewGoogleMapsGeocoder(apiKey, endpoint string, client *http.Client) *GoogleMapsGeocoder {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: client,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, name, region string) (*Result, error) {
	params := url.Values{}
	params.Set("address", Query(name, region))
	params.Set("key", g.apiKey)
	params.Set("region", "in") // Bias to India

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

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeMalformed, Message: "decoding response", Err: err}
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no results found for %q", Query(name, region))}
	case "OVER_QUERY_LIMIT":
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "google maps status: " + gmResp.Status}
	case "REQUEST_DENIED", "INVALID_REQUEST":
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: fmt.Sprintf("google maps status: %s %s", gmResp.Status, gmResp.ErrorMessage)}
	default:
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "google maps status: " + gmResp.Status}
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no results found for %q", Query(name, region))}
	}

	result := gmResp.Results[0]

	point, err := spatial.NewPoint(result.Geometry.Location.Lat, result.Geometry.Location.Lng)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeMalformed, Message: "coordinate out of range", Err: err}
	}

	// Islands usually come back as GEOMETRIC_CENTER or APPROXIMATE.
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	}

	return &Result{
		Point:       *point,
		Confidence:  confidence,
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}

// APIKeyFromADC looks up the Maps key named GoogleKeyDisplayName in the project
// of the Application Default Credentials. fallbackProject is used when the
// credentials carry no project.
func APIKeyFromADC(ctx context.Context, fallbackProject string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		if fallbackProject == "" {
			return "", errors.New("no project in default credentials and no fallback project configured")
		}

		projectID = fallbackProject
		log.Printf("⚠️ No Project ID found in credentials. Using fallback: %s", projectID)
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != GoogleKeyDisplayName {
			continue
		}

		// ListKeys redacts the KeyString.
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but KeyString is empty", GoogleKeyDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", GoogleKeyDisplayName, projectID)
}
