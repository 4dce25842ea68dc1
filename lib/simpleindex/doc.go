// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package simpleindex builds and searches the compact single-file
// index used by small sites and as a fallback when the chunked
// full-text index cannot be loaded.
//
// The artifact is one JSON document:
//
//	{
//	  "version": 1,
//	  "entries": [{"title": ..., "url": ..., "terms": [...]}, ...],
//	  "term_index": {"term": [0, 3, 7], ...}
//	}
//
// Entry positions are build order. Every term_index posting list is
// sorted ascending and refers to an existing entry. Search is a pure
// function of the index and the query: no I/O, no shared state, safe
// for concurrent use.
package simpleindex
