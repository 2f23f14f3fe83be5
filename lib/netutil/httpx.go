// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response reading helpers.
//
// All response body reads are capped at MaxBodySize so that a
// misbehaving server cannot exhaust memory. The helpers cover the two
// response shapes Plateforge deals with — JSON API envelopes (bot API)
// and opaque binary downloads (template archives). Streaming responses
// should be read incrementally with io.Copy instead.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxBodySize caps response body reads at 256 MB. Template archives
// and bot API responses are orders of magnitude smaller; the bound
// exists only to stop pathological responses.
const MaxBodySize int64 = 256 << 20

// ReadBody reads a response body up to MaxBodySize bytes. Use instead
// of io.ReadAll when reading HTTP response bodies.
func ReadBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxBodySize))
}

// DecodeJSON reads a response body (up to MaxBodySize bytes) and
// JSON-decodes it into v.
func DecodeJSON(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body for inclusion in an
// error message. Read failures are ignored — a partial body is still
// useful diagnostically.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxBodySize))
	return string(data)
}
