// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simpleindex

import (
	"fmt"
	"testing"

	"github.com/bureau-foundation/sitesearch/lib/content"
)

// handBuiltIndex is the two-entry index from the engine's reference
// scenario, constructed directly rather than through Build.
func handBuiltIndex() *Index {
	return &Index{
		Version: Version,
		Entries: []Entry{
			{Title: "Rust Guide", URL: "/rust/", Terms: []string{"guide", "rust"}},
			{Title: "JS Tips", URL: "/js/", Terms: []string{"js", "tips"}},
		},
		TermIndex: map[string][]int{
			"guide": {0},
			"rust":  {0},
			"js":    {1},
			"tips":  {1},
		},
	}
}

func TestSearchReferenceScenario(t *testing.T) {
	index := handBuiltIndex()

	results := index.Search("rust", 10)
	if len(results) != 1 || results[0].Entry != 0 {
		t.Fatalf("Search(rust) = %+v, want only entry 0", results)
	}
	if results[0].Snippet == "" {
		t.Error("snippet is empty")
	}

	results = index.Search("python", 10)
	if results == nil || len(results) != 0 {
		t.Errorf("Search(python) = %#v, want empty non-nil slice", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	index := handBuiltIndex()
	for _, query := range []string{"", "   ", "a", "!?"} {
		if results := index.Search(query, 10); len(results) != 0 {
			t.Errorf("Search(%q) = %+v, want empty", query, results)
		}
	}
}

func TestSearchANDSemantics(t *testing.T) {
	index := Build(sampleRecords(), Options{})

	results := index.Search("rust memory", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	for _, result := range results {
		if result.URL == "/js/" {
			t.Error("entry without every term was returned")
		}
	}

	if results := index.Search("rust javascript", 10); len(results) != 0 {
		t.Errorf("disjoint terms matched: %+v", results)
	}
}

func TestSearchTitleMatchRanksFirst(t *testing.T) {
	index := Build(sampleRecords(), Options{})
	results := index.Search("rust", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].URL != "/rust/" {
		t.Errorf("first result = %s, want the title match /rust/", results[0].URL)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v, %v", results[0].Score, results[1].Score)
	}
}

func TestSearchTiesKeepEntryOrder(t *testing.T) {
	var records []content.Record
	for i := range 5 {
		records = append(records, content.Record{
			Title:        fmt.Sprintf("Page %d", i),
			URL:          fmt.Sprintf("/page-%d/", i),
			RenderedText: "shared keyword",
		})
	}
	index := Build(records, Options{})
	results := index.Search("keyword", 10)
	if len(results) != 5 {
		t.Fatalf("got %d results", len(results))
	}
	for position, result := range results {
		if result.Entry != position {
			t.Errorf("position %d holds entry %d; equal scores must keep index order", position, result.Entry)
		}
	}
}

func TestSearchLimit(t *testing.T) {
	var records []content.Record
	for i := range 30 {
		records = append(records, content.Record{
			Title:        fmt.Sprintf("Note %d", i),
			URL:          fmt.Sprintf("/notes/%d/", i),
			RenderedText: "common",
		})
	}
	index := Build(records, Options{})

	if results := index.Search("common", 3); len(results) != 3 {
		t.Errorf("limit 3 returned %d", len(results))
	}
	if results := index.Search("common", 0); len(results) != 10 {
		t.Errorf("default limit returned %d", len(results))
	}
}

func TestSearchSnippetFromSummary(t *testing.T) {
	index := Build(sampleRecords(), Options{})
	results := index.Search("javascript", 10)
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Snippet != "Short JavaScript tips." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestSearchCJK(t *testing.T) {
	index := Build([]content.Record{
		{Title: "静的サイト", URL: "/ja/", RenderedText: "<p>静的サイトの全文検索</p>"},
		{Title: "Other", URL: "/en/", RenderedText: "<p>english only</p>"},
	}, Options{})

	results := index.Search("検索", 10)
	if len(results) != 1 || results[0].URL != "/ja/" {
		t.Errorf("Search(検索) = %+v", results)
	}
}

func TestSearchFindsWordParts(t *testing.T) {
	index := Build([]content.Record{
		{Title: "Node.js Tips", URL: "/node/", RenderedText: "<p>Event loops.</p>"},
		{Title: "Borrowing", URL: "/rust/", RenderedText: "<p>Rust's borrow checker and snake_case names</p>"},
	}, Options{})

	tests := map[string]string{
		"node":       "/node/",
		"js":         "/node/",
		"node.js":    "/node/",
		"rust":       "/rust/",
		"rust's":     "/rust/",
		"snake":      "/rust/",
		"snake_case": "/rust/",
	}
	for query, want := range tests {
		results := index.Search(query, 10)
		if len(results) != 1 || results[0].URL != want {
			t.Errorf("Search(%q) = %+v, want only %s", query, results, want)
		}
	}
}
