// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration shared by every
// on-disk record in the full-text index.
//
// Two serialization formats, with a clear boundary:
//
//   - JSON for everything a browser or operator reads directly: the
//     search manifest, the simple index, CLI --json output.
//   - CBOR for the binary index files (meta.cbor, terms.idx, dictionary
//     blocks, postings lists, stored documents). These are fetched by
//     byte range and never parsed as a whole.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Two
// builds of the same content therefore produce byte-identical index
// files, which is what lets the chunker skip rewriting unchanged
// chunks.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Index record types carry `cbor` struct tags. Types that are also
// emitted as JSON use `json` tags, which fxamacker/cbor reads as a
// fallback.
package codec
