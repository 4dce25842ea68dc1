// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simpleindex

import (
	"github.com/bureau-foundation/sitesearch/lib/result"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// Search returns up to limit entries containing every query term,
// best first. An empty query, or one that tokenizes to nothing,
// returns an empty slice. A query term absent from the index returns
// an empty slice. A non-positive limit means result.DefaultLimit.
func (index *Index) Search(query string, limit int) []result.Result {
	queryTerms := tokenize.Unique(query)
	if len(queryTerms) == 0 {
		return []result.Result{}
	}

	candidates := index.intersect(queryTerms)
	results := make([]result.Result, 0, len(candidates))
	for _, position := range candidates {
		entry := &index.Entries[position]
		score := result.TitleScore(queryTerms, entry.Title, tokenize.Tokenize(entry.Title)) +
			result.TermScore(queryTerms, entry.Terms) +
			result.SummaryScore(queryTerms, entry.Summary)
		results = append(results, result.Result{
			Entry:    position,
			Title:    entry.Title,
			URL:      entry.URL,
			Summary:  entry.Summary,
			Language: entry.Language,
			Tags:     entry.Tags,
			Date:     entry.Date,
			Score:    score,
		})
	}

	result.Sort(results)
	if limit = result.Limit(limit); len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		text := results[i].Summary
		if text == "" {
			text = results[i].Title
		}
		results[i].Snippet = result.Snippet(text, queryTerms, result.SnippetLength)
	}
	return results
}

// intersect returns the ascending entry positions present in the
// posting list of every term. It starts from the shortest list.
func (index *Index) intersect(terms []string) []int {
	lists := make([][]int, 0, len(terms))
	for _, term := range terms {
		postings, found := index.TermIndex[term]
		if !found {
			return nil
		}
		lists = append(lists, postings)
	}

	shortest := 0
	for i := range lists {
		if len(lists[i]) < len(lists[shortest]) {
			shortest = i
		}
	}

	current := append([]int(nil), lists[shortest]...)
	for i, list := range lists {
		if i == shortest {
			continue
		}
		current = intersectSorted(current, list)
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// intersectSorted merges two ascending lists, writing into a's
// backing array.
func intersectSorted(a, b []int) []int {
	output := a[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			output = append(output, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return output
}
