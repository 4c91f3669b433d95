// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the coordinate type shared by the dataset and the explorer.
package spatial

import (
	"fmt"
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint returns a Point if lat/lng form a valid coordinate.
func NewPoint(lat, lng float64) (*Point, error) {
	p := &Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, fmt.Errorf("spatial: invalid coordinate (%v, %v)", lat, lng)
	}

	return p, nil
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point is finite and within [-90,90] x [-180,180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}

	return s2.LatLngFromDegrees(p.Lat, p.Lng).IsValid()
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}

// Geohash encodes the point as a geohash string.
func (p Point) Geohash() string {
	return geohash.Encode(p.Lat, p.Lng)
}

// BoundingBox is a rectangle in decimal degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// India covers the mainland plus Lakshadweep and the Andaman & Nicobar Islands,
// with about a degree of margin.
var India = BoundingBox{
	MinLat: 5.0,
	MaxLat: 38.0,
	MinLng: 67.0,
	MaxLng: 98.5,
}
