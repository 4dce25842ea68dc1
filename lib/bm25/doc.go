// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bm25 implements Okapi BM25 scoring over precomputed corpus
// statistics. The full-text index stores document frequencies in its
// term dictionary and document lengths in its document table; this
// package turns those numbers into relevance scores without needing
// the documents themselves, so a query can be scored from a handful
// of byte-range reads.
package bm25
