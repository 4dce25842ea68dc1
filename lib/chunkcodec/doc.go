// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkcodec splits byte sequences into fixed-size chunks and
// reassembles arbitrary byte ranges from the chunks that cover them.
//
// Every chunk except the last is exactly the chunk size. Chunk i of a
// file holds bytes [i*size, min((i+1)*size, fileSize)). A range
// [start, end) is covered by chunks Covering(start, end):
//
//	first = start / size
//	last  = (end - 1) / size
//
// A range ending exactly on a chunk boundary does not include the next
// chunk. This is the contract both the build-time chunker and the
// runtime remote store rely on: the chunk list in a published manifest
// is a pure function of the file size and the chunk size.
package chunkcodec
