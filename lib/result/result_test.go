// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package result

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSortStableByEntry(t *testing.T) {
	results := []Result{
		{Entry: 3, Score: 1},
		{Entry: 1, Score: 5},
		{Entry: 0, Score: 1},
		{Entry: 2, Score: 5},
	}
	Sort(results)
	var order []int
	for _, result := range results {
		order = append(order, result.Entry)
	}
	want := []int{1, 2, 0, 3}
	for index := range want {
		if order[index] != want[index] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTitleOutranksBody(t *testing.T) {
	query := []string{"rust"}
	titleHit := TitleScore(query, "Rust Guide", []string{"rust", "guide"}) +
		TermScore(query, []string{"guide", "rust"})
	bodyHit := TitleScore(query, "Systems Programming", []string{"systems", "programming"}) +
		TermScore(query, []string{"programming", "rust", "rustacean", "systems"}) +
		SummaryScore(query, "all about rust")
	if titleHit <= bodyHit {
		t.Errorf("title hit %.2f should outrank body hit %.2f", titleHit, bodyHit)
	}
}

func TestTermScore(t *testing.T) {
	terms := []string{"guide", "rustacean"}
	if got := TermScore([]string{"guide"}, terms); got != termExactWeight {
		t.Errorf("exact = %v", got)
	}
	if got := TermScore([]string{"rust"}, terms); got != termContainsWeight {
		t.Errorf("contains = %v", got)
	}
	if got := TermScore([]string{"python"}, terms); got != 0 {
		t.Errorf("miss = %v", got)
	}
}

func TestSummaryRanksLowest(t *testing.T) {
	query := []string{"tips"}
	withSummary := SummaryScore(query, "Handy tips")
	if withSummary <= 0 || withSummary >= termContainsWeight {
		t.Errorf("summary weight %v should be positive and below term weights", withSummary)
	}
	if SummaryScore(query, "") != 0 {
		t.Error("empty summary scored")
	}
}

func TestSnippetShortText(t *testing.T) {
	if got := Snippet("Rust Guide", []string{"rust"}, 150); got != "Rust Guide" {
		t.Errorf("Snippet = %q", got)
	}
	if got := Snippet("", []string{"rust"}, 150); got != "" {
		t.Errorf("empty text snippet = %q", got)
	}
}

func TestSnippetWindow(t *testing.T) {
	prefix := strings.Repeat("filler words here ", 10)
	suffix := strings.Repeat(" more trailing text", 20)
	text := prefix + "the chunked index loads lazily" + suffix

	snippet := Snippet(text, []string{"chunked"}, 80)
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet should be elided on both ends: %q", snippet)
	}
	if !strings.Contains(snippet, "chunked index") {
		t.Errorf("snippet does not contain the match: %q", snippet)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(snippet, "..."), "...")
	if utf8.RuneCountInString(body) > 80 {
		t.Errorf("snippet body is %d runes, want <= 80", utf8.RuneCountInString(body))
	}
	if strings.HasPrefix(body, "iller") || strings.HasPrefix(body, "ords") {
		t.Errorf("snippet starts mid-word: %q", snippet)
	}
}

func TestSnippetCaseInsensitiveAndEarliestTerm(t *testing.T) {
	text := strings.Repeat("x ", 40) + "Beta then ALPHA"
	snippet := Snippet(text, []string{"alpha", "beta"}, 20)
	if !strings.Contains(snippet, "Beta") {
		t.Errorf("snippet should center on the earliest match: %q", snippet)
	}
}

func TestSnippetNoMatchUsesStart(t *testing.T) {
	text := strings.Repeat("word ", 100)
	snippet := Snippet(text, []string{"absent"}, 20)
	if strings.HasPrefix(snippet, "...") {
		t.Errorf("no-match snippet should start at the beginning: %q", snippet)
	}
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("long no-match snippet should be elided: %q", snippet)
	}
}

func TestSnippetMultibyte(t *testing.T) {
	text := strings.Repeat("静的", 60) + "サイト検索"
	snippet := Snippet(text, []string{"検索"}, 30)
	if !strings.Contains(snippet, "検索") {
		t.Errorf("snippet lost the match: %q", snippet)
	}
	if !utf8.ValidString(snippet) {
		t.Error("snippet is not valid UTF-8")
	}
}

func TestLimit(t *testing.T) {
	if Limit(0) != DefaultLimit || Limit(-3) != DefaultLimit || Limit(4) != 4 {
		t.Error("Limit normalization")
	}
}
