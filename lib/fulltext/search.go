// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulltext

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/sitesearch/lib/result"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// titleTier separates documents by the number of query terms found in
// their title. Any title hit outranks every BM25 score the rest of the
// document can produce.
const titleTier = 1000.0

// maxConcurrentReads bounds the range reads one query issues at once.
const maxConcurrentReads = 8

// candidate is a document matching every query term.
type candidate struct {
	document    uint32
	frequencies []uint32
	titleHits   int
	score       float64
}

// Search returns up to limit documents containing every query term,
// ranked by title hits, then BM25, then document number. An empty or
// all-noise query returns an empty slice. Errors come only from the
// underlying RangeReader or from corrupt index data.
func (reader *Reader) Search(ctx context.Context, query string, limit int) ([]result.Result, error) {
	queryTerms := tokenize.Unique(query)
	if len(queryTerms) == 0 || reader.meta.DocumentCount == 0 {
		return []result.Result{}, nil
	}

	entries := make([]termEntry, len(queryTerms))
	found := make([]bool, len(queryTerms))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentReads)
	for index, term := range queryTerms {
		group.Go(func() error {
			entry, ok, err := reader.lookup(groupContext, term)
			entries[index], found[index] = entry, ok
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for _, ok := range found {
		if !ok {
			return []result.Result{}, nil
		}
	}

	lists := make([][]posting, len(entries))
	group, groupContext = errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentReads)
	for index, entry := range entries {
		group.Go(func() error {
			list, err := reader.postings(groupContext, entry)
			lists[index] = list
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	candidates := intersectPostings(lists)
	if len(candidates) == 0 {
		return []result.Result{}, nil
	}

	rows, err := reader.documentRows(ctx, candidates[0].document, candidates[len(candidates)-1].document)
	if err != nil {
		return nil, err
	}
	first := candidates[0].document
	for index := range candidates {
		candidate := &candidates[index]
		length := int(rows[candidate.document-first].TokenCount)
		bm25Score := 0.0
		for termIndex, frequency := range candidate.frequencies {
			idf := reader.corpus.IDF(int(entries[termIndex].DocumentFrequency))
			bm25Score += reader.corpus.Term(idf, int(frequency), length)
		}
		candidate.score = float64(candidate.titleHits)*titleTier + bm25Score
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].document < candidates[j].document
	})
	if limit = result.Limit(limit); len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]result.Result, len(candidates))
	group, groupContext = errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentReads)
	for index, candidate := range candidates {
		group.Go(func() error {
			document, err := reader.Document(groupContext, candidate.document)
			if err != nil {
				return err
			}
			results[index] = buildResult(candidate, document, queryTerms)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// intersectPostings returns the documents present in every list, in
// ascending document order, with per-term frequencies. Lists must be
// ascending by document.
func intersectPostings(lists [][]posting) []candidate {
	shortest := 0
	for index := range lists {
		if len(lists[index]) < len(lists[shortest]) {
			shortest = index
		}
	}

	cursors := make([]int, len(lists))
	var candidates []candidate
	for _, anchor := range lists[shortest] {
		match := candidate{
			document:    anchor.Document,
			frequencies: make([]uint32, len(lists)),
		}
		matched := true
		for listIndex, list := range lists {
			cursor := cursors[listIndex]
			for cursor < len(list) && list[cursor].Document < anchor.Document {
				cursor++
			}
			cursors[listIndex] = cursor
			if cursor == len(list) || list[cursor].Document != anchor.Document {
				matched = false
				break
			}
			match.frequencies[listIndex] = list[cursor].Frequency
			if list[cursor].hasTitle() {
				match.titleHits++
			}
		}
		if matched {
			candidates = append(candidates, match)
		}
	}
	return candidates
}

func buildResult(candidate candidate, document *StoredDocument, queryTerms []string) result.Result {
	snippetSource := document.Summary
	if !containsAny(snippetSource, queryTerms) && document.Excerpt != "" {
		snippetSource = document.Excerpt
	}
	if snippetSource == "" {
		snippetSource = document.Title
	}
	return result.Result{
		Entry:    int(candidate.document),
		Title:    document.Title,
		URL:      document.URL,
		Summary:  document.Summary,
		Language: document.Language,
		Tags:     document.Tags,
		Date:     document.Date,
		Score:    candidate.score,
		Snippet:  result.Snippet(snippetSource, queryTerms, result.SnippetLength),
	}
}

func containsAny(text string, queryTerms []string) bool {
	if text == "" {
		return false
	}
	lowered := tokenize.Unique(text)
	for _, term := range queryTerms {
		for _, candidate := range lowered {
			if candidate == term {
				return true
			}
		}
	}
	return false
}
