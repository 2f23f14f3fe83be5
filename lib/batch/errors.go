// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import "fmt"

// TemplateFetchError indicates that the template archive could not be
// retrieved: the source location is unset, unreachable, or answered
// with a non-success status. Callers use errors.As to detect it:
//
//	var fetchErr *batch.TemplateFetchError
//	if errors.As(err, &fetchErr) { ... }
type TemplateFetchError struct {
	// URL is the configured source location, possibly empty.
	URL string
	// Err is the underlying cause.
	Err error
}

func (e *TemplateFetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("template fetch: %v", e.Err)
	}
	return fmt.Sprintf("template fetch from %s: %v", e.URL, e.Err)
}

func (e *TemplateFetchError) Unwrap() error { return e.Err }

// FormatError indicates that the fetched template is unusable: not a
// valid archive container, no descriptor entry, descriptor not valid
// JSON, or a required layer missing.
type FormatError struct {
	// Reason describes which stage of validation failed.
	Reason string
	// Err is the underlying cause, which may be nil when Reason
	// stands alone.
	Err error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("template format: %s", e.Reason)
	}
	return fmt.Sprintf("template format: %s: %v", e.Reason, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
