// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simpleindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// Version is the artifact schema version.
const Version = 1

// FileName is the artifact name in the site output directory.
const FileName = "search.json"

// GzipFileName is the precompressed sibling of FileName.
const GzipFileName = FileName + ".gz"

// MaxRecommendedSize is the artifact size above which the build warns
// that the site should rely on the chunked full-text index instead.
const MaxRecommendedSize = 500 * 1024

var (
	// ErrUnsupportedVersion is returned by Parse for artifacts of an
	// unknown schema version.
	ErrUnsupportedVersion = errors.New("unsupported simple index version")

	// ErrCorrupt is returned by Parse for malformed or inconsistent
	// artifacts.
	ErrCorrupt = errors.New("corrupt simple index")
)

// Index is the in-memory simple index.
type Index struct {
	Version   int              `json:"version"`
	Entries   []Entry          `json:"entries"`
	TermIndex map[string][]int `json:"term_index"`
}

// Entry is one indexed page.
type Entry struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Summary  string   `json:"summary,omitempty"`
	Language string   `json:"language,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Date     string   `json:"date,omitempty"`

	// Terms is the sorted, deduplicated term list of the page.
	Terms []string `json:"terms"`
}

// Options controls which fields contribute terms.
type Options struct {
	// Fields selects the indexed fields. Zero means title, body, and
	// tags.
	Fields tokenize.Field
}

// DefaultFields are the fields indexed when Options.Fields is zero.
const DefaultFields = tokenize.FieldTitle | tokenize.FieldBody | tokenize.FieldTags

// Build indexes the published records in order. Drafts are skipped.
// Build is deterministic: the same records produce the same index.
func Build(records []content.Record, options Options) *Index {
	fields := options.Fields
	if fields == 0 {
		fields = DefaultFields
	}

	published := content.Published(records)
	index := &Index{
		Version:   Version,
		Entries:   make([]Entry, 0, len(published)),
		TermIndex: make(map[string][]int),
	}

	for position, record := range published {
		summary := content.PlainSummary(record.Summary)
		terms := tokenize.Terms(tokenize.Document{
			Title:   record.Title,
			Summary: summary,
			Body:    tokenize.StripHTML(record.RenderedText),
			Tags:    record.Tags,
		}, fields)

		index.Entries = append(index.Entries, Entry{
			Title:    record.Title,
			URL:      record.URL,
			Summary:  summary,
			Language: record.Language,
			Tags:     record.Tags,
			Date:     record.Date,
			Terms:    terms,
		})
		// Positions are visited in increasing order, so every
		// posting list stays sorted.
		for _, term := range terms {
			index.TermIndex[term] = append(index.TermIndex[term], position)
		}
	}
	return index
}

// DocumentCount returns the number of entries.
func (index *Index) DocumentCount() int { return len(index.Entries) }

// TermCount returns the number of distinct terms.
func (index *Index) TermCount() int { return len(index.TermIndex) }

// Validate checks that every posting refers to an existing entry and
// that posting lists are strictly ascending.
func (index *Index) Validate() error {
	var errs []error
	if index.Version != Version {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnsupportedVersion, index.Version))
	}
	for _, term := range sortedTerms(index.TermIndex) {
		postings := index.TermIndex[term]
		for i, position := range postings {
			if position < 0 || position >= len(index.Entries) {
				errs = append(errs, fmt.Errorf("term %q: posting %d out of range (%d entries)",
					term, position, len(index.Entries)))
				break
			}
			if i > 0 && postings[i-1] >= position {
				errs = append(errs, fmt.Errorf("term %q: postings not strictly ascending", term))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Marshal encodes the index as compact JSON. Map keys are sorted by
// encoding/json, so output is deterministic.
func (index *Index) Marshal() ([]byte, error) {
	data, err := json.Marshal(index)
	if err != nil {
		return nil, fmt.Errorf("encoding simple index: %w", err)
	}
	return data, nil
}

// Parse decodes and validates an artifact.
func Parse(data []byte) (*Index, error) {
	var header struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if header.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	if *header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *header.Version)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if index.TermIndex == nil {
		index.TermIndex = make(map[string][]int)
	}
	if err := index.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &index, nil
}

func sortedTerms(termIndex map[string][]int) []string {
	terms := make([]string, 0, len(termIndex))
	for term := range termIndex {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
