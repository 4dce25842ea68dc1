// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sitesearch/lib/config"
	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/query"
	"github.com/bureau-foundation/sitesearch/lib/result"
	"github.com/bureau-foundation/sitesearch/lib/simpleindex"
	"github.com/bureau-foundation/sitesearch/lib/sitebuild"
	"github.com/bureau-foundation/sitesearch/lib/testutil"
)

// publishSite builds a small site and serves it.
func publishSite(t *testing.T) (*testutil.StaticSite, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Build.OutputDir = filepath.Join(t.TempDir(), "public")
	cfg.Search.ChunkSize = 256
	records := []content.Record{
		{Title: "Rust Ownership", URL: "/rust/", Tags: []string{"rust"}, Date: "2026-03-01", RenderedText: "<p>Ownership moves values between bindings.</p>"},
		{Title: "Closures", URL: "/closures/", RenderedText: "<p>Rust closures capture their environment.</p>"},
		{Title: "Gardening", URL: "/garden/", RenderedText: "<p>Tomatoes need sun.</p>"},
	}
	if _, err := sitebuild.Run(context.Background(), records, cfg, nil); err != nil {
		t.Fatalf("sitebuild.Run: %v", err)
	}
	return testutil.NewStaticSite(t, cfg.Build.OutputDir), cfg
}

func runJSON(t *testing.T, args ...string) query.Response {
	t.Helper()
	var stdout bytes.Buffer
	if err := run(append(args, "--json"), &stdout); err != nil {
		t.Fatalf("run(%v): %v", args, err)
	}
	var response query.Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, stdout.String())
	}
	return response
}

func TestRunFullIndex(t *testing.T) {
	site, cfg := publishSite(t)
	response := runJSON(t, "--base-url", site.URL(cfg.Build.IndexDir), "rust")
	if response.Status != query.StatusOK || response.Backend != query.BackendFull {
		t.Fatalf("status %q backend %v", response.Status, response.Backend)
	}
	if response.Total != 2 || response.Results[0].URL != "/rust/" {
		t.Errorf("results = %+v", response.Results)
	}
}

func TestRunSimpleIndex(t *testing.T) {
	site, cfg := publishSite(t)
	response := runJSON(t,
		"--base-url", site.URL(cfg.Build.IndexDir),
		"--simple-url", site.URL(simpleindex.FileName),
		"--no-full", "--limit", "1",
		"rust", "closures")
	if response.Backend != query.BackendSimple {
		t.Fatalf("backend %v", response.Backend)
	}
	if response.Query != "rust closures" {
		t.Errorf("Query = %q", response.Query)
	}
	if len(response.Results) != 1 || response.Results[0].URL != "/closures/" {
		t.Errorf("results = %+v", response.Results)
	}
}

func TestRunUnavailableIsNotAnError(t *testing.T) {
	site, _ := publishSite(t)
	var stdout bytes.Buffer
	err := run([]string{"--base-url", site.URL("nowhere"), "--simple-url", site.URL("missing.json"), "rust"}, &stdout)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(ansi.Strip(stdout.String()), "search unavailable") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunArgumentErrors(t *testing.T) {
	tests := map[string][]string{
		"no query":     {"--base-url", "http://localhost/search"},
		"blank query":  {"--base-url", "http://localhost/search", "  "},
		"no index":     {"rust"},
		"bad level":    {"--base-url", "http://localhost/search", "--log-level", "loud", "rust"},
		"unknown flag": {"--frobnicate"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if err := run(args, &bytes.Buffer{}); err == nil {
				t.Errorf("run(%v) succeeded", args)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--version"}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "sitesearch-query") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRenderResults(t *testing.T) {
	response := &query.Response{
		Status:     query.StatusOK,
		Backend:    query.BackendSimple,
		Query:      "rust",
		Total:      1,
		DurationMS: 1.5,
		Results: []result.Result{{
			Title:   "Rust Ownership",
			URL:     "/rust/",
			Tags:    []string{"rust", "memory"},
			Date:    "2026-03-01",
			Score:   16,
			Snippet: "Rust moves values",
		}},
	}
	var output bytes.Buffer
	render(&output, response, "manifest unavailable", 0)
	text := ansi.Strip(output.String())
	for _, want := range []string{
		`1 results for "rust" (simple index, 1.5 ms)`,
		"full-text unavailable: manifest unavailable",
		" 1. Rust Ownership",
		"/rust/",
		"Rust moves values",
		"2026-03-01 · rust, memory · score 16.00",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRenderTruncatesToWidth(t *testing.T) {
	response := &query.Response{
		Status:  query.StatusOK,
		Backend: query.BackendFull,
		Query:   "x",
		Total:   1,
		Results: []result.Result{{Title: strings.Repeat("long title ", 20), URL: "/x/"}},
	}
	var output bytes.Buffer
	render(&output, response, "", 40)
	for _, line := range strings.Split(strings.TrimRight(output.String(), "\n"), "\n") {
		if width := ansi.StringWidth(line); width > 40 {
			t.Errorf("line width %d > 40: %q", width, ansi.Strip(line))
		}
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		text  string
		terms []string
	}{
		{"Rust closures capture", []string{"rust", "capture"}},
		{"nothing here", []string{"rust"}},
		{"rustrust", []string{"rust"}},
		{"", []string{"rust"}},
		{"no terms", nil},
	}
	for _, test := range tests {
		got := highlight(test.text, test.terms)
		if stripped := ansi.Strip(got); stripped != test.text {
			t.Errorf("highlight(%q) changed text: %q", test.text, stripped)
		}
	}
}
