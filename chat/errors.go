// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"fmt"
)

// APIError is a structured error response from the bot API. Callers
// can use errors.As to extract the structured information:
//
//	var apiErr *chat.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == http.StatusTooManyRequests { ... }
//	}
type APIError struct {
	// Code is the platform's error code, which mirrors an HTTP
	// status (400, 403, 429, ...).
	Code int
	// Description is the human-readable error from the platform.
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat: api error %d: %s", e.Code, e.Description)
}

// IsAPIError checks whether err is an *APIError with the given code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
