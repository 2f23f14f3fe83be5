// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/plateforge/plateforge/lib/netutil"
)

// TemplateFetcher retrieves the template archive bytes. One fetch
// happens per batch.
type TemplateFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher retrieves templates over HTTP(S).
type HTTPFetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client uses
// http.DefaultClient; a nil logger uses slog.Default().
func NewHTTPFetcher(client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{httpClient: client, logger: logger}
}

// Fetch performs a GET request and returns the response body. Non-2xx
// statuses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("source returned status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}

	body, err := netutil.ReadBody(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading template body: %w", err)
	}

	f.logger.Debug("template downloaded", "url", url, "bytes", len(body))
	return body, nil
}
