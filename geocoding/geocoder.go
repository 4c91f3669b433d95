// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves island names into coordinates through third-party
// lookup services.
package geocoding

import (
	"context"
	"log"
	"strings"

	"github.com/islands-bharath/islands/spatial"
)

const (
	// Country qualifies every query.
	Country = "India"

	querySeparator = ", "
)

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder is implemented by each lookup provider. Implementations issue exactly
// one outbound request per call.
type Geocoder interface {
	Geocode(ctx context.Context, name, region string) (*Result, error)
}

// Query builds the free-text lookup: "<name>, <region>, India", or "<name>, India"
// when region is blank.
func Query(name, region string) string {
	parts := []string{strings.TrimSpace(name)}
	if r := strings.TrimSpace(region); r != "" {
		parts = append(parts, r)
	}

	return strings.Join(append(parts, Country), querySeparator)
}

// Lookup calls g and checks what it returns. Every failure is a
// *GeocodingError, an empty name included, so callers can classify it with the
// Is* helpers.
func Lookup(ctx context.Context, g Geocoder, name, region string) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	result, err := g.Geocode(ctx, name, region)
	if err != nil {
		return nil, err
	}

	if result == nil || !result.Point.Valid() {
		return nil, &GeocodingError{
			Type:    ErrorTypeMalformed,
			Message: "provider returned an invalid coordinate",
		}
	}

	return result, nil
}

// Resolve calls g and collapses every failure into "not found". The reason is
// logged and never returned, so callers can move on to the next record.
func Resolve(ctx context.Context, g Geocoder, name, region string) (*spatial.Point, bool) {
	result, err := Lookup(ctx, g, name, region)
	if err != nil {
		log.Printf("Error geocoding %q: %v", name, err)

		return nil, false
	}

	p := result.Point

	return &p, true
}
