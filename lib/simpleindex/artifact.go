// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simpleindex

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/sitesearch/lib/atomicfile"
	"github.com/bureau-foundation/sitesearch/lib/compress"
	"github.com/bureau-foundation/sitesearch/lib/netutil"
)

// WriteOptions configures artifact output.
type WriteOptions struct {
	// Gzip also writes FileName.gz next to the JSON artifact.
	Gzip bool

	// MaxSize is the size above which a warning is logged. Zero means
	// MaxRecommendedSize.
	MaxSize int64

	// Logger receives the size warning. Nil means slog.Default().
	Logger *slog.Logger
}

// Artifact describes what Write produced.
type Artifact struct {
	Path     string
	Size     int64
	GzipPath string
	GzipSize int64

	// Oversized is set when Size exceeded the configured maximum.
	Oversized bool
}

// Write stores the index as directory/search.json (and optionally
// search.json.gz). Existing files with identical content are left
// untouched.
func (index *Index) Write(directory string, options WriteOptions) (*Artifact, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSize := options.MaxSize
	if maxSize <= 0 {
		maxSize = MaxRecommendedSize
	}

	data, err := index.Marshal()
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Path: filepath.Join(directory, FileName),
		Size: int64(len(data)),
	}
	if _, err := atomicfile.WriteIfChanged(artifact.Path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing simple index: %w", err)
	}

	if artifact.Size > maxSize {
		artifact.Oversized = true
		logger.Warn("simple search index exceeds recommended size; consider the chunked full-text index",
			"path", artifact.Path,
			"size", artifact.Size,
			"recommended_max", maxSize,
			"documents", index.DocumentCount(),
			"terms", index.TermCount(),
		)
	}

	if options.Gzip {
		compressed, err := compress.Gzip(data)
		if err != nil {
			return nil, fmt.Errorf("compressing simple index: %w", err)
		}
		artifact.GzipPath = filepath.Join(directory, GzipFileName)
		artifact.GzipSize = int64(len(compressed))
		if _, err := atomicfile.WriteIfChanged(artifact.GzipPath, compressed, 0644); err != nil {
			return nil, fmt.Errorf("writing compressed simple index: %w", err)
		}
	}

	logger.Info("simple search index written",
		"path", artifact.Path,
		"size", artifact.Size,
		"gzip_size", artifact.GzipSize,
		"documents", index.DocumentCount(),
		"terms", index.TermCount(),
	)
	return artifact, nil
}

// Decode reads an artifact of at most limit bytes (uncompressed) from
// reader. When gzipped is set the stream is gunzipped first.
func Decode(reader io.Reader, gzipped bool, limit int64) (*Index, error) {
	var data []byte
	var err error
	if gzipped {
		data, err = compress.Gunzip(reader, limit)
	} else {
		data, err = netutil.ReadLimited(reader, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("reading simple index: %w", err)
	}
	return Parse(data)
}

// Load reads an artifact from disk. Files ending in .gz are
// decompressed.
func Load(path string, limit int64) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening simple index: %w", err)
	}
	defer file.Close()
	index, err := Decode(file, strings.HasSuffix(path, ".gz"), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return index, nil
}
