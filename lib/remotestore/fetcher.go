// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/sitesearch/lib/netutil"
)

// Fetcher retrieves whole objects by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches objects with HTTP GET.
type HTTPFetcher struct {
	// Client is the HTTP client. Nil means http.DefaultClient.
	Client *http.Client

	// MaxSize bounds each response body. Zero means
	// netutil.MaxResponseSize.
	MaxSize int64
}

// Fetch implements Fetcher. Non-2xx responses return *StatusError.
func (fetcher *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := fetcher.Client
	if client == nil {
		client = http.DefaultClient
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{
			URL:        url,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}
	data, err := netutil.ReadLimited(response.Body, fetcher.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return data, nil
}
