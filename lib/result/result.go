// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package result holds what both search engines return: the ranked
// result type, the shared relevance heuristics, and snippet
// extraction. Keeping these in one place means the simple index and
// the full-text index agree on how a title match outranks a body
// match and on what a snippet looks like.
package result

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultLimit is the result count used when a caller passes a
// non-positive limit.
const DefaultLimit = 10

// SnippetLength is the maximum snippet length in runes, excluding
// ellipses.
const SnippetLength = 150

// snippetLead is how many runes of context precede the first match,
// capped at a third of the snippet length.
const snippetLead = 50

// Score weights. A title hit outweighs any combination of term and
// summary hits for the same query term.
const (
	titleContainsWeight = 10.0
	titleExactWeight    = 5.0
	termExactWeight     = 1.0
	termContainsWeight  = 0.5
	summaryWeight       = 0.25
)

// Result is one ranked search hit.
type Result struct {
	// Entry is the document position in the index (build order).
	Entry int `json:"entry"`

	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Summary  string   `json:"summary,omitempty"`
	Language string   `json:"language,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Date     string   `json:"date,omitempty"`

	// Score is the relevance score. Only comparable between results of
	// the same query on the same engine.
	Score float64 `json:"score"`

	// Snippet is a window of summary or body text around the first
	// matching term.
	Snippet string `json:"snippet"`
}

// Limit normalizes a caller-supplied limit.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Sort orders results by descending score, then ascending entry so
// equal scores keep index order.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry < results[j].Entry
	})
}

// TitleScore scores query terms against a title: a substring hit adds
// the highest weight, and a hit on a whole title word adds more.
func TitleScore(queryTerms []string, title string, titleTerms []string) float64 {
	lowered := strings.ToLower(title)
	score := 0.0
	for _, term := range queryTerms {
		if strings.Contains(lowered, term) {
			score += titleContainsWeight
		}
		for _, titleTerm := range titleTerms {
			if titleTerm == term {
				score += titleExactWeight
				break
			}
		}
	}
	return score
}

// TermScore scores query terms against a document's term list: an
// exact term counts fully, a term that merely contains the query term
// counts half.
func TermScore(queryTerms []string, documentTerms []string) float64 {
	score := 0.0
	for _, term := range queryTerms {
		exact := false
		contains := false
		for _, documentTerm := range documentTerms {
			if documentTerm == term {
				exact = true
				break
			}
			if !contains && strings.Contains(documentTerm, term) {
				contains = true
			}
		}
		switch {
		case exact:
			score += termExactWeight
		case contains:
			score += termContainsWeight
		}
	}
	return score
}

// SummaryScore adds the lowest weight for each query term found in the
// summary text.
func SummaryScore(queryTerms []string, summary string) float64 {
	if summary == "" {
		return 0
	}
	lowered := strings.ToLower(summary)
	score := 0.0
	for _, term := range queryTerms {
		if strings.Contains(lowered, term) {
			score += summaryWeight
		}
	}
	return score
}

// Snippet returns a window of text around the first occurrence of any
// query term, at most maxLength runes, with "..." marking truncated
// ends. The window starts up to 50 runes before the match (less for
// short snippets), moved forward to a word boundary. When no term occurs, the snippet is the
// start of the text. Matching is case-insensitive.
func Snippet(text string, queryTerms []string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = SnippetLength
	}
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return ""
	}
	lowered := make([]rune, len(runes))
	for index, r := range runes {
		lowered[index] = unicode.ToLower(r)
	}

	matchAt := -1
	for _, term := range queryTerms {
		position := indexRunes(lowered, []rune(term))
		if position >= 0 && (matchAt < 0 || position < matchAt) {
			matchAt = position
		}
	}

	lead := min(snippetLead, maxLength/3)
	start := 0
	if matchAt > lead {
		start = matchAt - lead
		// Advance to the next word start unless that passes the match.
		for boundary := start; boundary < matchAt; boundary++ {
			if runes[boundary] == ' ' {
				start = boundary + 1
				break
			}
		}
	}

	end := min(start+maxLength, len(runes))
	if end < len(runes) {
		// Pull back to the last space so the final word is whole.
		for boundary := end; boundary > start; boundary-- {
			if runes[boundary] == ' ' {
				end = boundary
				break
			}
		}
	}

	var builder strings.Builder
	if start > 0 {
		builder.WriteString("...")
	}
	builder.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		builder.WriteString("...")
	}
	return builder.String()
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		matched := true
		for offset, r := range needle {
			if haystack[start+offset] != r {
				matched = false
				break
			}
		}
		if matched {
			return start
		}
	}
	return -1
}
