// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"errors"
	"fmt"
)

// DefaultChunkSize is the chunk size used when a build does not
// configure one: 64 KiB.
const DefaultChunkSize = 64 * 1024

// ErrInvalidChunkSize is returned when a chunk size is zero or
// negative. This is a configuration error and aborts a build.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// ErrShortChunks is returned by Assemble when the supplied chunks do
// not contain enough bytes to satisfy the requested range.
var ErrShortChunks = errors.New("chunks do not cover requested range")

// ErrInvalidRange is returned for inverted ranges and for ranges that
// extend past the end of a file.
var ErrInvalidRange = errors.New("invalid byte range")

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r Range) Len() int64 { return r.End - r.Start }

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Validate reports whether the range lies within a file of the given
// size. An empty range is valid anywhere in [0, size].
func (r Range) Validate(size int64) error {
	if r.Start < 0 || r.End < r.Start {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if r.End > size {
		return fmt.Errorf("%w: %s exceeds file size %d", ErrInvalidRange, r, size)
	}
	return nil
}

// ChunkCount returns ceil(size / chunkSize): the number of chunks a
// file of the given size occupies. A zero-length file has no chunks.
func ChunkCount(size int64, chunkSize int) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + int64(chunkSize) - 1) / int64(chunkSize))
}

// Split cuts data into consecutive chunks of chunkSize bytes. The
// last chunk holds the remainder and may be shorter. Empty input
// yields no chunks. The returned chunks alias data.
func Split(data []byte, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	chunks := make([][]byte, 0, ChunkCount(int64(len(data)), chunkSize))
	for offset := 0; offset < len(data); offset += chunkSize {
		end := min(offset+chunkSize, len(data))
		chunks = append(chunks, data[offset:end:end])
	}
	return chunks, nil
}

// Covering returns the inclusive indices of the first and last chunks
// that hold any byte of r. For an empty range last is first-1: no
// chunk covers it.
func Covering(r Range, chunkSize int) (first, last int) {
	size := int64(chunkSize)
	first = int(r.Start / size)
	if r.Len() <= 0 {
		return first, first - 1
	}
	return first, int((r.End - 1) / size)
}

// Assemble extracts r from chunks, which must be exactly the covering
// chunks of r in index order (as returned by Covering). Every chunk
// but the last must be a full chunkSize bytes. An empty range takes no
// chunks and yields an empty slice.
func Assemble(chunks [][]byte, chunkSize int, r Range) ([]byte, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	if r.Start < 0 || r.End < r.Start {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}

	first, last := Covering(r, chunkSize)
	if len(chunks) != last-first+1 {
		return nil, fmt.Errorf("%w: range %s needs %d chunks, got %d",
			ErrShortChunks, r, last-first+1, len(chunks))
	}

	length := r.Len()
	output := make([]byte, 0, length)
	skip := r.Start % int64(chunkSize)
	for index, chunk := range chunks {
		if index < len(chunks)-1 && len(chunk) != chunkSize {
			return nil, fmt.Errorf("%w: chunk %d has %d bytes, expected %d",
				ErrShortChunks, first+index, len(chunk), chunkSize)
		}
		if skip > int64(len(chunk)) {
			return nil, fmt.Errorf("%w: chunk %d has %d bytes, range starts at offset %d",
				ErrShortChunks, first+index, len(chunk), skip)
		}
		piece := chunk[skip:]
		skip = 0
		remaining := length - int64(len(output))
		if int64(len(piece)) > remaining {
			piece = piece[:remaining]
		}
		output = append(output, piece...)
	}

	if int64(len(output)) != length {
		return nil, fmt.Errorf("%w: assembled %d bytes of %d for range %s",
			ErrShortChunks, len(output), length, r)
	}
	return output, nil
}
