// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulltext

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bureau-foundation/sitesearch/lib/atomicfile"
	"github.com/bureau-foundation/sitesearch/lib/bm25"
	"github.com/bureau-foundation/sitesearch/lib/codec"
	"github.com/bureau-foundation/sitesearch/lib/compress"
	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// DefaultExcerptLength is the number of body runes kept per stored
// document for snippets.
const DefaultExcerptLength = 600

// WriteOptions configures index construction.
type WriteOptions struct {
	// Fields selects the indexed fields. Zero means every field.
	Fields tokenize.Field

	// ExcerptLength is the stored body excerpt length in runes. Zero
	// means DefaultExcerptLength; negative disables excerpts.
	ExcerptLength int

	// Logger receives build progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Stats summarizes a written index.
type Stats struct {
	DocumentCount         int
	TermCount             int
	AverageDocumentLength float64

	// FileSizes maps each index file name to its size in bytes.
	FileSizes map[string]int64
}

// TotalSize returns the sum of all index file sizes.
func (stats *Stats) TotalSize() int64 {
	var total int64
	for _, size := range stats.FileSizes {
		total += size
	}
	return total
}

// Write builds the index for the published records and writes its
// files into directory, which is created if needed. Entry numbers
// follow record order after drafts are removed, matching the simple
// index.
func Write(directory string, records []content.Record, options WriteOptions) (*Stats, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fields := options.Fields
	if fields == 0 {
		fields = tokenize.AllFields
	}
	excerptLength := options.ExcerptLength
	if excerptLength == 0 {
		excerptLength = DefaultExcerptLength
	}

	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	published := content.Published(records)
	postings := make(map[string][]posting)
	documentLengths := make([]int, len(published))
	var documents, documentIndex []byte

	for number, record := range published {
		summary := content.PlainSummary(record.Summary)
		body := tokenize.StripHTML(record.RenderedText)
		counts := tokenize.Counts(tokenize.Document{
			Title:   record.Title,
			Summary: summary,
			Body:    body,
			Tags:    record.Tags,
		}, fields)
		documentLengths[number] = tokenize.TokenCount(counts)

		for term, count := range counts {
			postings[term] = append(postings[term], posting{
				Document:  uint32(number),
				Frequency: uint32(count.Frequency),
				Fields:    uint8(count.Fields),
			})
		}

		stored := StoredDocument{
			Title:    record.Title,
			URL:      record.URL,
			Summary:  summary,
			Language: record.Language,
			Tags:     record.Tags,
			Date:     record.Date,
			Excerpt:  truncateRunes(body, excerptLength),
		}
		encoded, err := encodeRecord(stored, compress.Zstd)
		if err != nil {
			return nil, fmt.Errorf("document %d (%s): %w", number, record.URL, err)
		}
		documentIndex = documentRow{
			Offset:     uint64(len(documents)),
			Length:     uint32(len(encoded)),
			TokenCount: uint32(documentLengths[number]),
		}.append(documentIndex)
		documents = append(documents, encoded...)
	}

	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var postingsData, dictionary []byte
	var blocks []blockRef
	block := make([]termEntry, 0, termsPerBlock)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		encoded, err := encodeRecord(block, compress.LZ4)
		if err != nil {
			return fmt.Errorf("dictionary block %d: %w", len(blocks), err)
		}
		blocks = append(blocks, blockRef{
			FirstTerm: block[0].Term,
			Offset:    uint64(len(dictionary)),
			Length:    uint32(len(encoded)),
		})
		dictionary = append(dictionary, encoded...)
		block = block[:0]
		return nil
	}

	for _, term := range terms {
		// Postings were appended in document order, so each list is
		// already ascending.
		list := postings[term]
		encoded, err := encodeRecord(list, compress.LZ4)
		if err != nil {
			return nil, fmt.Errorf("postings for %q: %w", term, err)
		}
		block = append(block, termEntry{
			Term:              term,
			PostingsOffset:    uint64(len(postingsData)),
			PostingsLength:    uint32(len(encoded)),
			DocumentFrequency: uint32(len(list)),
		})
		postingsData = append(postingsData, encoded...)
		if len(block) == termsPerBlock {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	termIndex, err := encodeRecord(blocks, compress.LZ4)
	if err != nil {
		return nil, fmt.Errorf("term index: %w", err)
	}
	meta := Meta{
		Version:               FormatVersion,
		DocumentCount:         len(published),
		TermCount:             len(terms),
		BlockCount:            len(blocks),
		AverageDocumentLength: bm25.AverageLength(documentLengths),
		Fields:                uint8(fields),
	}
	metaData, err := codec.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding meta: %w", err)
	}

	stats := &Stats{
		DocumentCount:         meta.DocumentCount,
		TermCount:             meta.TermCount,
		AverageDocumentLength: meta.AverageDocumentLength,
		FileSizes:             make(map[string]int64, len(Files)),
	}
	contents := map[string][]byte{
		MetaFile:          metaData,
		TermIndexFile:     termIndex,
		DictionaryFile:    dictionary,
		PostingsFile:      postingsData,
		DocumentIndexFile: documentIndex,
		DocumentsFile:     documents,
	}
	for _, name := range Files {
		data := contents[name]
		if _, err := atomicfile.WriteIfChanged(filepath.Join(directory, name), data, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		stats.FileSizes[name] = int64(len(data))
	}

	logger.Info("full-text index written",
		"directory", directory,
		"documents", stats.DocumentCount,
		"terms", stats.TermCount,
		"dictionary_blocks", len(blocks),
		"size", stats.TotalSize(),
	)
	return stats, nil
}

// truncateRunes returns at most limit runes of text. A negative limit
// returns "".
func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	count := 0
	for index := range text {
		if count == limit {
			return text[:index]
		}
		count++
	}
	return text
}
