// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress frames the variable-length records of the full-text
// index. Each record is a one-byte algorithm tag, the uncompressed
// length as a uvarint, and the payload:
//
//	[tag][uvarint size][payload]
//
// Records are independent so any one of them can be decoded from a
// single byte-range read. The package also produces the gzip sibling
// of the simple index artifact.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/sitesearch/lib/netutil"
)

// Tag identifies the compression algorithm of a record. Values are
// stored on disk; changing them breaks index compatibility.
type Tag uint8

const (
	// None stores the payload as-is. Chosen automatically when neither
	// algorithm makes the payload smaller.
	None Tag = 0

	// LZ4 is LZ4 block compression. Used for postings lists and
	// dictionary blocks, which are read on every query and favour
	// decode speed.
	LZ4 Tag = 1

	// Zstd is zstd at the default level. Used for stored documents,
	// which are text-heavy and compress well.
	Zstd Tag = 2
)

// String returns the configuration name of the tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseTag parses a tag from its configuration name.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// MaxRecordSize bounds the uncompressed size a record header may
// claim. A corrupt header must not trigger a huge allocation.
const MaxRecordSize = 64 << 20

// ErrCorruptRecord is returned when a record header or payload cannot
// be decoded.
var ErrCorruptRecord = errors.New("corrupt record")

// errIncompressible means compression did not shrink the input.
var errIncompressible = errors.New("data is incompressible")

// zstdEncoder and zstdDecoder are shared; both are safe for concurrent
// use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxRecordSize))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeRecord frames data with the preferred algorithm, falling back
// to None when compression does not help. It returns the framed
// record and the tag actually used.
func EncodeRecord(data []byte, preferred Tag) ([]byte, Tag, error) {
	if len(data) > MaxRecordSize {
		return nil, 0, fmt.Errorf("record of %d bytes exceeds maximum %d", len(data), MaxRecordSize)
	}

	tag := preferred
	payload, err := compressPayload(data, preferred)
	if errors.Is(err, errIncompressible) {
		tag, payload = None, data
	} else if err != nil {
		return nil, 0, err
	}

	record := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	record = append(record, byte(tag))
	record = binary.AppendUvarint(record, uint64(len(data)))
	record = append(record, payload...)
	return record, tag, nil
}

// DecodeRecord reverses EncodeRecord. The record must be exactly one
// framed record with no trailing bytes.
func DecodeRecord(record []byte) ([]byte, error) {
	if len(record) < 2 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than a header", ErrCorruptRecord, len(record))
	}
	tag := Tag(record[0])
	size, headerLength := binary.Uvarint(record[1:])
	if headerLength <= 0 {
		return nil, fmt.Errorf("%w: bad size varint", ErrCorruptRecord)
	}
	if size > MaxRecordSize {
		return nil, fmt.Errorf("%w: claimed size %d exceeds maximum %d", ErrCorruptRecord, size, MaxRecordSize)
	}
	payload := record[1+headerLength:]

	data, err := decompressPayload(payload, tag, int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return data, nil
}

func compressPayload(data []byte, tag Tag) ([]byte, error) {
	switch tag {
	case None:
		return data, nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func decompressPayload(payload []byte, tag Tag, size int) ([]byte, error) {
	switch tag {
	case None:
		if len(payload) != size {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match header %d", len(payload), size)
		}
		return payload, nil
	case LZ4:
		return decompressLZ4(payload, size)
	case Zstd:
		return decompressZstd(payload, size)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}

// Gzip compresses data at the best compression level. Static hosts
// serve the result as a precompressed sibling of a JSON artifact.
func Gzip(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buffer, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buffer.Bytes(), nil
}

// Gunzip decompresses a gzip stream, reading at most limit
// uncompressed bytes. Output longer than limit is an error.
func Gunzip(reader io.Reader, limit int64) ([]byte, error) {
	gzipReader, err := gzip.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer gzipReader.Close()

	data, err := netutil.ReadLimited(gzipReader, limit)
	if err != nil {
		return nil, fmt.Errorf("gzip stream: %w", err)
	}
	return data, nil
}
