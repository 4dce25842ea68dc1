// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulltext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bureau-foundation/sitesearch/lib/bm25"
	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
	"github.com/bureau-foundation/sitesearch/lib/codec"
	"github.com/bureau-foundation/sitesearch/lib/memo"
)

// RangeReader is random access to the index files.
type RangeReader interface {
	// ReadRange returns exactly the bytes of r within file.
	ReadRange(ctx context.Context, file string, r chunkcodec.Range) ([]byte, error)

	// FileSize returns the size of file and whether it exists.
	FileSize(file string) (int64, bool)
}

// Reader queries an index through a RangeReader. It is safe for
// concurrent use. Decoded dictionary blocks and stored documents are
// memoized for the Reader's lifetime.
type Reader struct {
	source RangeReader
	meta   Meta
	blocks []blockRef
	corpus bm25.Corpus

	dictionaryBlocks memo.Memo[[]termEntry]
	documents        memo.Memo[*StoredDocument]
}

// Open reads meta.cbor and terms.idx and validates the presence and
// sizes of the remaining files.
func Open(ctx context.Context, source RangeReader) (*Reader, error) {
	metaData, err := readWhole(ctx, source, MetaFile)
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := codec.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptIndex, MetaFile, err)
	}
	if meta.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d (reader supports %d)", ErrUnsupportedFormat, meta.Version, FormatVersion)
	}

	var blocks []blockRef
	if meta.BlockCount > 0 {
		termIndexData, err := readWhole(ctx, source, TermIndexFile)
		if err != nil {
			return nil, err
		}
		if err := decodeRecord(termIndexData, &blocks); err != nil {
			return nil, fmt.Errorf("%s: %w", TermIndexFile, err)
		}
	}
	if len(blocks) != meta.BlockCount {
		return nil, fmt.Errorf("%w: %s lists %d blocks, meta says %d",
			ErrCorruptIndex, TermIndexFile, len(blocks), meta.BlockCount)
	}
	if !sort.SliceIsSorted(blocks, func(i, j int) bool { return blocks[i].FirstTerm < blocks[j].FirstTerm }) {
		return nil, fmt.Errorf("%w: %s blocks are not sorted", ErrCorruptIndex, TermIndexFile)
	}

	documentIndexSize, _ := source.FileSize(DocumentIndexFile)
	if documentIndexSize != int64(meta.DocumentCount)*documentRowSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d rows",
			ErrCorruptIndex, DocumentIndexFile, documentIndexSize, meta.DocumentCount)
	}
	for _, name := range []string{DictionaryFile, PostingsFile, DocumentsFile} {
		if _, exists := source.FileSize(name); !exists && meta.DocumentCount > 0 {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptIndex, name)
		}
	}

	return &Reader{
		source: source,
		meta:   meta,
		blocks: blocks,
		corpus: bm25.Corpus{
			DocumentCount:         meta.DocumentCount,
			AverageDocumentLength: meta.AverageDocumentLength,
		},
	}, nil
}

// Meta returns the index statistics read from meta.cbor.
func (reader *Reader) Meta() Meta { return reader.meta }

// DocumentCount returns the number of indexed documents.
func (reader *Reader) DocumentCount() int { return reader.meta.DocumentCount }

// TermCount returns the number of distinct terms.
func (reader *Reader) TermCount() int { return reader.meta.TermCount }

// lookup returns the dictionary entry for term, or false if the term
// is not in the index.
func (reader *Reader) lookup(ctx context.Context, term string) (termEntry, bool, error) {
	// The candidate block is the last one whose first term <= term.
	blockIndex := sort.Search(len(reader.blocks), func(i int) bool {
		return reader.blocks[i].FirstTerm > term
	}) - 1
	if blockIndex < 0 {
		return termEntry{}, false, nil
	}

	entries, err := reader.dictionaryBlocks.Get(ctx, strconv.Itoa(blockIndex), func(ctx context.Context) ([]termEntry, error) {
		ref := reader.blocks[blockIndex]
		data, err := reader.source.ReadRange(ctx, DictionaryFile, chunkcodec.Range{
			Start: int64(ref.Offset),
			End:   int64(ref.Offset) + int64(ref.Length),
		})
		if err != nil {
			return nil, err
		}
		var entries []termEntry
		if err := decodeRecord(data, &entries); err != nil {
			return nil, fmt.Errorf("dictionary block %d: %w", blockIndex, err)
		}
		return entries, nil
	})
	if err != nil {
		return termEntry{}, false, err
	}

	position := sort.Search(len(entries), func(i int) bool { return entries[i].Term >= term })
	if position < len(entries) && entries[position].Term == term {
		return entries[position], true, nil
	}
	return termEntry{}, false, nil
}

// postings reads the postings list of a dictionary entry.
func (reader *Reader) postings(ctx context.Context, entry termEntry) ([]posting, error) {
	data, err := reader.source.ReadRange(ctx, PostingsFile, chunkcodec.Range{
		Start: int64(entry.PostingsOffset),
		End:   int64(entry.PostingsOffset) + int64(entry.PostingsLength),
	})
	if err != nil {
		return nil, err
	}
	var list []posting
	if err := decodeRecord(data, &list); err != nil {
		return nil, fmt.Errorf("postings for %q: %w", entry.Term, err)
	}
	if uint32(len(list)) != entry.DocumentFrequency {
		return nil, fmt.Errorf("%w: postings for %q hold %d documents, dictionary says %d",
			ErrCorruptIndex, entry.Term, len(list), entry.DocumentFrequency)
	}
	return list, nil
}

// documentRows reads the docs.idx rows for documents first..last
// inclusive in a single range read.
func (reader *Reader) documentRows(ctx context.Context, first, last uint32) ([]documentRow, error) {
	if int(last) >= reader.meta.DocumentCount {
		return nil, fmt.Errorf("%w: document %d out of range", ErrCorruptIndex, last)
	}
	data, err := reader.source.ReadRange(ctx, DocumentIndexFile, chunkcodec.Range{
		Start: int64(first) * documentRowSize,
		End:   int64(last+1) * documentRowSize,
	})
	if err != nil {
		return nil, err
	}
	rows := make([]documentRow, 0, last-first+1)
	for offset := 0; offset+documentRowSize <= len(data); offset += documentRowSize {
		rows = append(rows, decodeDocumentRow(data[offset:offset+documentRowSize]))
	}
	return rows, nil
}

// Document returns the stored document with the given number.
func (reader *Reader) Document(ctx context.Context, number uint32) (*StoredDocument, error) {
	return reader.documents.Get(ctx, strconv.FormatUint(uint64(number), 10), func(ctx context.Context) (*StoredDocument, error) {
		rows, err := reader.documentRows(ctx, number, number)
		if err != nil {
			return nil, err
		}
		row := rows[0]
		data, err := reader.source.ReadRange(ctx, DocumentsFile, chunkcodec.Range{
			Start: int64(row.Offset),
			End:   int64(row.Offset) + int64(row.Length),
		})
		if err != nil {
			return nil, err
		}
		var document StoredDocument
		if err := decodeRecord(data, &document); err != nil {
			return nil, fmt.Errorf("document %d: %w", number, err)
		}
		return &document, nil
	})
}

func readWhole(ctx context.Context, source RangeReader, file string) ([]byte, error) {
	size, exists := source.FileSize(file)
	if !exists {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptIndex, file)
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorruptIndex, file)
	}
	return source.ReadRange(ctx, file, chunkcodec.Range{Start: 0, End: size})
}

// Directory is a RangeReader over an index directory on local disk.
type Directory struct {
	root string
}

// NewDirectory returns a RangeReader for the index files in root.
func NewDirectory(root string) *Directory {
	return &Directory{root: root}
}

// FileSize implements RangeReader.
func (directory *Directory) FileSize(file string) (int64, bool) {
	info, err := os.Stat(filepath.Join(directory.root, filepath.FromSlash(file)))
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

// ReadRange implements RangeReader.
func (directory *Directory) ReadRange(ctx context.Context, file string, r chunkcodec.Range) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handle, err := os.Open(filepath.Join(directory.root, filepath.FromSlash(file)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}
	defer handle.Close()

	info, err := handle.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", file, err)
	}
	if err := r.Validate(info.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	data := make([]byte, r.Len())
	if _, err := handle.ReadAt(data, r.Start); err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", file, r, err)
	}
	return data, nil
}
