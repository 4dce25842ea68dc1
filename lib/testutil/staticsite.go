// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// StaticSite is an httptest server over a directory.
type StaticSite struct {
	// Server is the underlying test server. Its URL is the site root.
	Server *httptest.Server

	root string

	mu       sync.Mutex
	requests map[string]int
	failures map[string]int
}

// NewStaticSite serves root until the test ends.
func NewStaticSite(t interface {
	Helper()
	Cleanup(func())
}, root string) *StaticSite {
	t.Helper()
	site := &StaticSite{
		root:     root,
		requests: make(map[string]int),
		failures: make(map[string]int),
	}
	site.Server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.Server.Close)
	return site
}

// URL returns the absolute URL of a site-relative path.
func (site *StaticSite) URL(relative string) string {
	return site.Server.URL + "/" + strings.TrimPrefix(relative, "/")
}

// Requests returns how many times relative was requested.
func (site *StaticSite) Requests(relative string) int {
	site.mu.Lock()
	defer site.mu.Unlock()
	return site.requests["/"+strings.TrimPrefix(relative, "/")]
}

// TotalRequests returns the number of requests served so far.
func (site *StaticSite) TotalRequests() int {
	site.mu.Lock()
	defer site.mu.Unlock()
	total := 0
	for _, count := range site.requests {
		total += count
	}
	return total
}

// FailNext makes the next count requests for relative answer 503.
func (site *StaticSite) FailNext(relative string, count int) {
	site.mu.Lock()
	defer site.mu.Unlock()
	site.failures["/"+strings.TrimPrefix(relative, "/")] = count
}

func (site *StaticSite) serve(writer http.ResponseWriter, request *http.Request) {
	requestPath := path.Clean(request.URL.Path)

	site.mu.Lock()
	site.requests[requestPath]++
	failing := site.failures[requestPath] > 0
	if failing {
		site.failures[requestPath]--
	}
	site.mu.Unlock()

	if failing {
		http.Error(writer, "injected failure", http.StatusServiceUnavailable)
		return
	}

	data, err := os.ReadFile(filepath.Join(site.root, filepath.FromSlash(requestPath)))
	if err != nil {
		http.NotFound(writer, request)
		return
	}
	writer.Header().Set("Content-Type", "application/octet-stream")
	writer.Write(data)
}
