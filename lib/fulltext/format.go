// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulltext

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/sitesearch/lib/codec"
	"github.com/bureau-foundation/sitesearch/lib/compress"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// FormatVersion is the index format written by this package.
const FormatVersion = 1

// Index file names.
const (
	MetaFile          = "meta.cbor"
	TermIndexFile     = "terms.idx"
	DictionaryFile    = "terms.dict"
	PostingsFile      = "postings.dat"
	DocumentIndexFile = "docs.idx"
	DocumentsFile     = "docs.dat"
)

// Files lists every index file in a fixed order.
var Files = []string{MetaFile, TermIndexFile, DictionaryFile, PostingsFile, DocumentIndexFile, DocumentsFile}

// termsPerBlock is the number of dictionary entries per block.
const termsPerBlock = 64

// documentRowSize is the width of one docs.idx row: offset (u64),
// length (u32), token count (u32), little-endian.
const documentRowSize = 16

var (
	// ErrUnsupportedFormat is returned by Open for an index written in
	// a different format version.
	ErrUnsupportedFormat = errors.New("unsupported full-text index format")

	// ErrCorruptIndex is returned when an index file cannot be decoded
	// or is inconsistent with meta.cbor.
	ErrCorruptIndex = errors.New("corrupt full-text index")
)

// Meta is the content of meta.cbor.
type Meta struct {
	Version               int     `cbor:"version"`
	DocumentCount         int     `cbor:"document_count"`
	TermCount             int     `cbor:"term_count"`
	BlockCount            int     `cbor:"block_count"`
	AverageDocumentLength float64 `cbor:"average_document_length"`

	// Fields is the tokenize.Field set that was indexed.
	Fields uint8 `cbor:"fields"`
}

// blockRef locates one dictionary block in terms.dict.
type blockRef struct {
	_         struct{} `cbor:",toarray"`
	FirstTerm string
	Offset    uint64
	Length    uint32
}

// termEntry is one dictionary entry.
type termEntry struct {
	_                 struct{} `cbor:",toarray"`
	Term              string
	PostingsOffset    uint64
	PostingsLength    uint32
	DocumentFrequency uint32
}

// posting records one document containing a term.
type posting struct {
	_         struct{} `cbor:",toarray"`
	Document  uint32
	Frequency uint32
	Fields    uint8
}

// StoredDocument is the per-document record in docs.dat: what a
// result needs for display and snippets.
type StoredDocument struct {
	Title    string   `cbor:"title"`
	URL      string   `cbor:"url"`
	Summary  string   `cbor:"summary,omitempty"`
	Language string   `cbor:"language,omitempty"`
	Tags     []string `cbor:"tags,omitempty"`
	Date     string   `cbor:"date,omitempty"`

	// Excerpt is the leading plain text of the body, used for
	// snippets when the summary does not contain a query term.
	Excerpt string `cbor:"excerpt,omitempty"`
}

// documentRow is a decoded docs.idx row.
type documentRow struct {
	Offset     uint64
	Length     uint32
	TokenCount uint32
}

func (row documentRow) append(buffer []byte) []byte {
	buffer = binary.LittleEndian.AppendUint64(buffer, row.Offset)
	buffer = binary.LittleEndian.AppendUint32(buffer, row.Length)
	return binary.LittleEndian.AppendUint32(buffer, row.TokenCount)
}

func decodeDocumentRow(data []byte) documentRow {
	return documentRow{
		Offset:     binary.LittleEndian.Uint64(data[0:8]),
		Length:     binary.LittleEndian.Uint32(data[8:12]),
		TokenCount: binary.LittleEndian.Uint32(data[12:16]),
	}
}

// encodeRecord CBOR-encodes value and frames it with the given
// compression preference.
func encodeRecord(value any, preferred compress.Tag) ([]byte, error) {
	encoded, err := codec.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	record, _, err := compress.EncodeRecord(encoded, preferred)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// decodeRecord reverses encodeRecord into target.
func decodeRecord(record []byte, target any) error {
	encoded, err := compress.DecodeRecord(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if err := codec.Unmarshal(encoded, target); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return nil
}

// hasTitle reports whether a posting's field mask includes the title.
func (p posting) hasTitle() bool {
	return tokenize.Field(p.Fields).Has(tokenize.FieldTitle)
}
