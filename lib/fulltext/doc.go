// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fulltext writes and queries the full-text search index that
// the chunker publishes as fixed-size static chunks.
//
// The index is a directory of six files, laid out so that a query
// touches only a few small byte ranges:
//
//	meta.cbor     corpus statistics and format version
//	terms.idx     sorted list of dictionary blocks (first term, range)
//	terms.dict    dictionary blocks, each up to 64 sorted term entries
//	postings.dat  one postings list per term
//	docs.idx      fixed-width rows: stored document range + token count
//	docs.dat      one stored document per row
//
// meta.cbor and terms.idx are read whole when the index is opened.
// Everything else is read by range: a query term costs one dictionary
// block read and one postings read, and each returned result costs one
// stored-document read. Variable-length records are framed by
// lib/compress and encoded with lib/codec, so identical input produces
// byte-identical files.
//
// The Reader reads through the RangeReader interface. The runtime
// implementation is the remote chunked store; tests and build-time
// verification use a local directory.
package fulltext
