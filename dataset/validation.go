// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/islands-bharath/islands/spatial"
	"github.com/islands-bharath/islands/utils/textutils"
)

// Severity of a validation issue.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueKind names what is wrong with a record.
type IssueKind string

// Issue kinds.
const (
	IssueEmptyName         IssueKind = "empty_name"
	IssueDuplicateName     IssueKind = "duplicate_name"
	IssuePartialCoordinate IssueKind = "partial_coordinate"
	IssueInvalidCoordinate IssueKind = "invalid_coordinate"
	IssueOutsideIndia      IssueKind = "outside_india"
	IssueSharedLocation    IssueKind = "shared_location"
)

// Differently named islands of one region closer than this, in meters, are
// reported as sharing a location.
const sharedLocationRadius = 100.0

const maxNameLength = 200

// Issue is a validation finding for one record.
type Issue struct {
	Index    int
	Name     string
	Region   string
	Kind     IssueKind
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d (%s / %s): %s: %s", i.Index+1, i.Name, i.Region, i.Severity, i.Message)
}

// validateCoordinates checks the raw coordinate cells of a record.
func validateCoordinates(lat, lng string) (IssueKind, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return "", nil
	}

	if lat == "" || lng == "" {
		return IssuePartialCoordinate, fmt.Errorf("only one of latitude (%q) and longitude (%q) is set", lat, lng)
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return IssueInvalidCoordinate, fmt.Errorf("latitude is not a number: %q", lat)
	}

	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return IssueInvalidCoordinate, fmt.Errorf("longitude is not a number: %q", lng)
	}

	if la < -90 || la > 90 {
		return IssueInvalidCoordinate, fmt.Errorf("latitude must be between -90 and 90 (got %f)", la)
	}

	if lo < -180 || lo > 180 {
		return IssueInvalidCoordinate, fmt.Errorf("longitude must be between -180 and 180 (got %f)", lo)
	}

	if !spatial.India.Contains(spatial.Point{Lat: la, Lng: lo}) {
		return IssueOutsideIndia, fmt.Errorf("coordinate (%f, %f) lies outside India", la, lo)
	}

	return "", nil
}

// Validate reports problems in the dataset: empty or overlong names, names
// repeated within a region (case and accent insensitive), and coordinate cells
// that are partial, malformed, out of range or outside India. Only the last is
// a warning, as are islands of one region found at the same spot.
func Validate(d *Dataset) []Issue {
	var issues []Issue

	add := func(rec *Record, kind IssueKind, sev Severity, msg string) {
		issues = append(issues, Issue{
			Index:    rec.Index,
			Name:     rec.Name,
			Region:   rec.Region,
			Kind:     kind,
			Severity: sev,
			Message:  msg,
		})
	}

	seen := make(map[string]int)

	for _, rec := range d.Records {
		switch {
		case rec.Name == "":
			add(rec, IssueEmptyName, SeverityError, "island name cannot be empty")
		case len(rec.Name) > maxNameLength:
			add(rec, IssueEmptyName, SeverityError, fmt.Sprintf("island name too long (max %d characters)", maxNameLength))
		default:
			key := textutils.LowerASCIIFolding(rec.Region) + "\x00" + textutils.LowerASCIIFolding(rec.Name)
			if first, ok := seen[key]; ok {
				add(rec, IssueDuplicateName, SeverityError, fmt.Sprintf("duplicates row %d within region", first+1))
			} else {
				seen[key] = rec.Index
			}
		}

		kind, err := validateCoordinates(rec.RawLatitude, rec.RawLongitude)
		if err == nil {
			continue
		}

		sev := SeverityError
		if kind == IssueOutsideIndia {
			sev = SeverityWarning
		}

		add(rec, kind, sev, err.Error())
	}

	byRegion := make(map[string][]*Record)

	for _, rec := range d.Records {
		if rec.Point == nil || rec.Name == "" {
			continue
		}

		region := textutils.LowerASCIIFolding(rec.Region)
		name := textutils.LowerASCIIFolding(rec.Name)

		for _, other := range byRegion[region] {
			if textutils.LowerASCIIFolding(other.Name) == name {
				continue
			}

			if dist := rec.Point.HaversineDistance(other.Point); dist < sharedLocationRadius {
				add(rec, IssueSharedLocation, SeverityWarning,
					fmt.Sprintf("%.0f m from %s (row %d)", dist, other.Name, other.Index+1))

				break
			}
		}

		byRegion[region] = append(byRegion[region], rec)
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}

	return false
}
