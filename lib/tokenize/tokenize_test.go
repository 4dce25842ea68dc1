// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenize

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestTokenizeLatin(t *testing.T) {
	terms := Tokenize("Hello World! This is a test of Go 1.25.")
	for _, want := range []string{"hello", "world", "this", "is", "test", "of", "go"} {
		if !slices.Contains(terms, want) {
			t.Errorf("missing term %q in %v", want, terms)
		}
	}
	if slices.Contains(terms, "a") {
		t.Errorf("single-letter term kept: %v", terms)
	}
}

func TestTokenizeKeepsRepeats(t *testing.T) {
	terms := Tokenize("rust Rust RUST")
	if strings.Join(terms, ",") != "rust,rust,rust" {
		t.Errorf("Tokenize = %v, want three lowercase repeats", terms)
	}
	if unique := Unique("rust Rust RUST go"); strings.Join(unique, ",") != "rust,go" {
		t.Errorf("Unique = %v, want [rust go]", unique)
	}
}

func TestTokenizeCJK(t *testing.T) {
	terms := Tokenize("你好世界")
	for _, want := range []string{"你", "好", "世", "界", "你好", "好世", "世界"} {
		if !slices.Contains(terms, want) {
			t.Errorf("missing CJK term %q in %v", want, terms)
		}
	}
}

func TestTokenizeSplitsAtPunctuation(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Rust's borrow checker", want: "rust,borrow,checker"},
		{text: "Node.js tips", want: "node,js,tips"},
		{text: "snake_case names", want: "snake,case,names"},
		{text: "e.g. x86-64 v1.25", want: "x86,64,v1,25"},
		{text: "café's naïve", want: "café,naïve"},
	}
	for _, test := range tests {
		if got := strings.Join(Tokenize(test.text), ","); got != test.want {
			t.Errorf("Tokenize(%q) = %s, want %s", test.text, got, test.want)
		}
	}
}

func TestTokenizeKanaProlongedSoundMark(t *testing.T) {
	terms := Tokenize("東京タワー")
	for _, want := range []string{"ー", "ワー", "タ", "東京"} {
		if !slices.Contains(terms, want) {
			t.Errorf("missing term %q in %v", want, terms)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if terms := Tokenize(""); len(terms) != 0 {
		t.Errorf("Tokenize(\"\") = %v", terms)
	}
	if terms := Tokenize("  ,.;! a"); len(terms) != 0 {
		t.Errorf("punctuation-only input produced %v", terms)
	}
}

// TestQueryMatchesBuildTerms checks that tokenizing a phrase from a
// document yields terms the document's index terms contain.
func TestQueryMatchesBuildTerms(t *testing.T) {
	document := Document{
		Title: "Chunked Index Loading",
		Body:  "The runtime fetches 64 KiB chunks over HTTP. 静的サイト検索",
		Tags:  []string{"Search", "WebAssembly"},
	}
	indexTerms := Terms(document, AllFields)
	for _, query := range []string{"chunked loading", "FETCHES chunks", "webassembly", "検索", "サイト"} {
		for _, term := range Unique(query) {
			if _, found := slices.BinarySearch(indexTerms, term); !found {
				t.Errorf("query %q term %q not among index terms %v", query, term, indexTerms)
			}
		}
	}
}

func TestCountsRespectsFields(t *testing.T) {
	document := Document{
		Title:   "Rust guide",
		Summary: "summary words",
		Body:    "rust body rust",
		Tags:    []string{"rust"},
	}
	counts := Counts(document, FieldTitle|FieldBody)
	rust := counts["rust"]
	if rust.Frequency != 3 {
		t.Errorf("rust frequency = %d, want 3", rust.Frequency)
	}
	if !rust.Fields.Has(FieldTitle) || !rust.Fields.Has(FieldBody) || rust.Fields.Has(FieldTags) {
		t.Errorf("rust fields = %b", rust.Fields)
	}
	if _, present := counts["summary"]; present {
		t.Error("summary field was indexed although not selected")
	}
	if total := TokenCount(counts); total != 5 {
		t.Errorf("TokenCount = %d, want 5", total)
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"title", "body", "tags"})
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if fields != FieldTitle|FieldBody|FieldTags {
		t.Errorf("fields = %b", fields)
	}

	_, err = ParseFields([]string{"title", "author"})
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) || unknown.Name != "author" {
		t.Errorf("got %v, want UnknownFieldError for author", err)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "just text", want: "just text"},
		{name: "paragraphs", input: "<p>First</p><p>Second</p>", want: "First Second"},
		{name: "entities", input: "<p>Fish &amp; chips &lt;3&gt; caf&eacute;</p>", want: "Fish & chips <3> café"},
		{name: "script dropped", input: "<p>a<script>var x = '<p>no</p>';</script>b</p>", want: "a b"},
		{name: "style dropped", input: "<style>p { color: red }</style><h1>Title</h1>", want: "Title"},
		{name: "whitespace", input: "<div>\n\tlots   of\n space </div>", want: "lots of space"},
		{name: "unclosed", input: "<p>open <b>bold", want: "open bold"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := StripHTML(test.input); got != test.want {
				t.Errorf("StripHTML(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}
