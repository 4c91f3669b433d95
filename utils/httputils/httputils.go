// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils builds the outbound HTTP client used by the geocoders.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// ClientOptions describes how outbound lookups identify themselves and are traced.
type ClientOptions struct {
	// UserAgent identifies this program to the upstream service
	UserAgent string

	// Timeout bounds a whole request, including reading the body
	Timeout time.Duration

	// Trace, when set, receives a dump of every request and response
	Trace io.Writer

	// TraceBody includes response bodies in the trace
	TraceBody bool

	// Transport is the innermost transport. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// NewClient returns an http.Client that stamps every request with the client
// identifier and, optionally, traces the exchange.
func NewClient(options ClientOptions) *http.Client {
	base := options.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	traced := &TracingRoundTripper{
		Transport: base,
		Writer:    options.Trace,
		DumpBody:  options.TraceBody,
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if options.UserAgent != "" {
		headers["User-Agent"] = options.UserAgent
	}

	return &http.Client{
		Timeout: options.Timeout,
		Transport: &HeaderRoundTripper{
			Headers:   headers,
			Transport: traced,
		},
	}
}

// TracingRoundTripper writes an abbreviated dump of each exchange to Writer.
// It is a pass-through when Writer is nil.
type TracingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// prefix each line and cut long dumps.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

func (t *TracingRoundTripper) write(dump []byte, prefix rune) error {
	lines := abbreviate(strings.Split(string(dump), "\n"), prefix)
	_, err := fmt.Fprintln(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *TracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if err := t.write(dump, '>'); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		fmt.Fprintf(t.Writer, "< ERROR: [%v] %v\n", time.Since(start), err)

		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start))

	if err := t.write(dump, '<'); err != nil {
		return nil, err
	}

	return resp, nil
}

// HeaderRoundTripper sets fixed headers on every request.
type HeaderRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
