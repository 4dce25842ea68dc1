// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunker splits a built full-text index into fixed-size chunk
// files that a static host can serve, and produces the manifest that
// describes them.
//
// Chunking is idempotent. A chunk whose BLAKE3 digest matches the file
// already on disk is left untouched, so an unchanged index produces no
// writes and leaves modification times alone for rsync-style deploys.
// Chunks left over from a larger previous build are removed.
package chunker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/sitesearch/lib/atomicfile"
	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
	"github.com/bureau-foundation/sitesearch/lib/manifest"
)

// ErrEmptyIndex is returned by ChunkDirectory when the source
// directory holds no files. Callers treat it as a warning: full search
// is disabled for the build.
var ErrEmptyIndex = errors.New("index directory contains no files")

// IOError reports a filesystem failure during chunking. It always
// aborts the build.
type IOError struct {
	// Op is what was being attempted ("read", "write", "remove", ...).
	Op string

	// Path is the file or directory involved.
	Path string

	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("chunker: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Config controls chunking.
type Config struct {
	// ChunkSize is the chunk length in bytes. Zero means
	// chunkcodec.DefaultChunkSize.
	ChunkSize int

	// Logger receives per-build summaries. Nil means slog.Default().
	Logger *slog.Logger
}

// summary counts what a chunking pass did to the output directory.
type summary struct {
	Written   int
	Unchanged int
	Removed   int
}

// ChunkDirectory splits every regular file under sourceDir into chunks
// written to outputDir as "{file}.{index}", where file is the path
// relative to sourceDir with forward slashes. Files are processed in
// sorted order. The returned manifest is not written; use
// WriteManifest.
func ChunkDirectory(sourceDir, outputDir string, config Config) (*manifest.Manifest, error) {
	result, _, err := chunkDirectory(sourceDir, outputDir, config)
	return result, err
}

func chunkDirectory(sourceDir, outputDir string, config Config) (*manifest.Manifest, summary, error) {
	var counts summary
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = chunkcodec.DefaultChunkSize
	}
	result, err := manifest.New(chunkSize)
	if err != nil {
		return nil, counts, err
	}

	files, err := listFiles(sourceDir)
	if err != nil {
		return nil, counts, err
	}
	if len(files) == 0 {
		return nil, counts, fmt.Errorf("%w: %s", ErrEmptyIndex, sourceDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, counts, &IOError{Op: "create", Path: outputDir, Err: err}
	}
	previous := previousManifest(outputDir, logger)

	for _, name := range files {
		sourcePath := filepath.Join(sourceDir, filepath.FromSlash(name))
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return nil, counts, &IOError{Op: "read", Path: sourcePath, Err: err}
		}
		chunks, err := chunkcodec.Split(data, chunkSize)
		if err != nil {
			return nil, counts, err
		}
		entry := result.AddFile(name, int64(len(data)))

		chunkPath := func(index int) string {
			return filepath.Join(outputDir, filepath.FromSlash(manifest.ChunkName(name, index)))
		}
		if err := os.MkdirAll(filepath.Dir(chunkPath(0)), 0755); err != nil {
			return nil, counts, &IOError{Op: "create", Path: filepath.Dir(chunkPath(0)), Err: err}
		}
		for index, chunk := range chunks {
			written, err := writeChunk(chunkPath(index), chunk)
			if err != nil {
				return nil, counts, err
			}
			if written {
				counts.Written++
			} else {
				counts.Unchanged++
			}
		}

		removed, err := removeStale(chunkPath, len(entry.Chunks), previousChunkCount(previous, name))
		if err != nil {
			return nil, counts, err
		}
		counts.Removed += removed
	}

	// Files that disappeared from the index entirely.
	if previous != nil {
		for _, name := range previous.FileNames() {
			if _, exists := result.File(name); exists {
				continue
			}
			chunkPath := func(index int) string {
				return filepath.Join(outputDir, filepath.FromSlash(manifest.ChunkName(name, index)))
			}
			removed, err := removeStale(chunkPath, 0, len(previous.Files[name].Chunks))
			if err != nil {
				return nil, counts, err
			}
			counts.Removed += removed
		}
	}

	logger.Info("index chunked",
		"files", len(files),
		"chunks", result.ChunkCount(),
		"total_size", result.TotalSize,
		"written", counts.Written,
		"unchanged", counts.Unchanged,
		"removed", counts.Removed,
	)
	return result, counts, nil
}

// listFiles returns the regular files under root as sorted,
// slash-separated relative paths.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}
		files = append(files, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, err
	}
	// WalkDir visits in lexical order per directory, which is not the
	// same as sorting full slash-separated paths.
	sort.Strings(files)
	return files, nil
}

// writeChunk writes data to path unless an identical chunk is already
// there. It reports whether a write happened.
func writeChunk(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(existing) == len(data) && blake3.Sum256(existing) == blake3.Sum256(data) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, &IOError{Op: "read", Path: path, Err: err}
	}
	if err := atomicfile.Write(path, data, 0644); err != nil {
		return false, &IOError{Op: "write", Path: path, Err: err}
	}
	return true, nil
}

// removeStale deletes chunk files from index keep upward. It stops at
// the first missing index past previousCount, so it also cleans up
// after builds whose manifest was never written.
func removeStale(chunkPath func(int) string, keep, previousCount int) (int, error) {
	removed := 0
	for index := keep; ; index++ {
		err := os.Remove(chunkPath(index))
		if errors.Is(err, fs.ErrNotExist) {
			if index >= previousCount {
				return removed, nil
			}
			continue
		}
		if err != nil {
			return removed, &IOError{Op: "remove", Path: chunkPath(index), Err: err}
		}
		removed++
	}
}

// previousManifest loads the manifest of an earlier build from
// outputDir, or returns nil.
func previousManifest(outputDir string, logger *slog.Logger) *manifest.Manifest {
	data, err := os.ReadFile(filepath.Join(outputDir, manifest.FileName))
	if err != nil {
		return nil
	}
	previous, err := manifest.Parse(data)
	if err != nil {
		logger.Warn("ignoring unreadable previous manifest", "path", outputDir, "error", err)
		return nil
	}
	return previous
}

func previousChunkCount(previous *manifest.Manifest, name string) int {
	if previous == nil {
		return 0
	}
	entry, _ := previous.File(name)
	return len(entry.Chunks)
}

// WriteManifest atomically writes m as JSON to path.
func WriteManifest(m *manifest.Manifest, path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if _, err := atomicfile.WriteIfChanged(path, data, 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Reassemble reads the chunks of file from chunksDir and returns the
// original bytes, checking each chunk length against the manifest.
func Reassemble(m *manifest.Manifest, chunksDir, file string) ([]byte, error) {
	entry, exists := m.File(file)
	if !exists {
		return nil, fmt.Errorf("file %q is not in the manifest", file)
	}
	data := make([]byte, 0, entry.Size)
	for index, name := range entry.Chunks {
		path := filepath.Join(chunksDir, filepath.FromSlash(name))
		chunk, err := os.ReadFile(path)
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		want := int64(m.ChunkSize)
		if index == len(entry.Chunks)-1 {
			want = entry.Size - int64(index)*int64(m.ChunkSize)
		}
		if int64(len(chunk)) != want {
			return nil, fmt.Errorf("chunk %s is %d bytes, manifest expects %d", name, len(chunk), want)
		}
		data = append(data, chunk...)
	}
	return data, nil
}
