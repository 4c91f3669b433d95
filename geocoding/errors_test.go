// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &GeocodingError{Type: ErrorTypeRateLimit, Message: "slow down"}, true},
		{"wrapped", fmt.Errorf("row 3: %w", &GeocodingError{Type: ErrorTypeRateLimit}), true},
		{"message rate limit", errors.New("rate limit exceeded"), true},
		{"message 429", errors.New("nominatim returned status 429"), true},
		{"other type", &GeocodingError{Type: ErrorTypeNotFound, Message: "429 islands"}, false},
		{"unrelated", errors.New("some other error"), false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &GeocodingError{Type: ErrorTypeQuotaExceeded}, true},
		{"google status", errors.New("google maps status: OVER_QUERY_LIMIT"), true},
		{"unrelated", errors.New("boom"), false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &GeocodingError{Type: ErrorTypeTimeout}, true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"unrelated", errors.New("boom"), false},
	}, IsTimeoutError)
}

func TestIsNotFoundError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"typed", &GeocodingError{Type: ErrorTypeNotFound}, true},
		{"untyped", errors.New("not found"), false},
	}, IsNotFoundError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusGatewayTimeout, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ClassifyHTTPError(tt.status)
			assert.Equal(t, tt.want, err.Type)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "geocoding request failed: dial tcp: connection refused", err.Error())
	assert.Equal(t, "network_error", err.Type.String())
}
