// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest defines the search index manifest: the JSON
// document published next to the index chunks that lists every index
// file, its size, and the chunk objects holding its bytes.
//
// The manifest is the single source of truth for the runtime store.
// A reader fetches it once, then maps any byte range of any file to a
// set of chunk names without further lookups.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
)

// FileName is the name of the manifest object, relative to the index
// base URL.
const FileName = "search-manifest.json"

// CurrentVersion is the manifest schema version written by this build.
// Readers refuse any other version.
const CurrentVersion = 1

var (
	// ErrUnsupportedVersion is returned by Parse when the manifest was
	// written with a schema version this reader does not understand.
	ErrUnsupportedVersion = errors.New("unsupported manifest version")

	// ErrCorrupt is returned by Parse when the manifest is malformed
	// JSON or fails validation.
	ErrCorrupt = errors.New("corrupt manifest")
)

// Manifest describes a chunked search index.
type Manifest struct {
	// Version is the schema version (CurrentVersion).
	Version int `json:"version"`

	// ChunkSize is the size in bytes of every chunk except the last
	// chunk of each file.
	ChunkSize int `json:"chunk_size"`

	// TotalSize is the sum of all file sizes.
	TotalSize int64 `json:"total_size"`

	// Files maps an index file name (slash-separated, relative to the
	// index root) to its size and chunk list.
	Files map[string]FileManifest `json:"files"`
}

// FileManifest describes one index file.
type FileManifest struct {
	// Size is the file length in bytes.
	Size int64 `json:"size"`

	// Chunks lists the chunk object names in index order. Always
	// ChunkName(file, 0) .. ChunkName(file, n-1).
	Chunks []string `json:"chunks"`
}

// ChunkName returns the object name of chunk index of file:
// "{file}.{index}".
func ChunkName(file string, index int) string {
	return file + "." + strconv.Itoa(index)
}

// New returns an empty manifest at the current version.
func New(chunkSize int) (*Manifest, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", chunkcodec.ErrInvalidChunkSize, chunkSize)
	}
	return &Manifest{
		Version:   CurrentVersion,
		ChunkSize: chunkSize,
		Files:     make(map[string]FileManifest),
	}, nil
}

// AddFile records a file of the given size, computing its chunk list.
// Adding a name twice replaces the earlier entry.
func (m *Manifest) AddFile(name string, size int64) FileManifest {
	if previous, exists := m.Files[name]; exists {
		m.TotalSize -= previous.Size
	}
	count := chunkcodec.ChunkCount(size, m.ChunkSize)
	chunks := make([]string, count)
	for index := range chunks {
		chunks[index] = ChunkName(name, index)
	}
	entry := FileManifest{Size: size, Chunks: chunks}
	m.Files[name] = entry
	m.TotalSize += size
	return entry
}

// File returns the entry for name.
func (m *Manifest) File(name string) (FileManifest, bool) {
	entry, ok := m.Files[name]
	return entry, ok
}

// FileNames returns the file names in sorted order.
func (m *Manifest) FileNames() []string {
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChunkCount returns the number of chunk objects across all files.
func (m *Manifest) ChunkCount() int {
	total := 0
	for _, entry := range m.Files {
		total += len(entry.Chunks)
	}
	return total
}

// Validate checks the internal consistency of the manifest: positive
// chunk size, chunk counts matching ceil(size/chunk_size), canonical
// chunk names, and a total equal to the sum of file sizes.
func (m *Manifest) Validate() error {
	var errs []error

	if m.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version))
	}
	if m.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size: %w", chunkcodec.ErrInvalidChunkSize))
	}

	var sum int64
	for _, name := range m.FileNames() {
		entry := m.Files[name]
		if name == "" {
			errs = append(errs, errors.New("file with empty name"))
			continue
		}
		if entry.Size < 0 {
			errs = append(errs, fmt.Errorf("file %q: negative size %d", name, entry.Size))
			continue
		}
		sum += entry.Size
		if m.ChunkSize <= 0 {
			continue
		}
		want := chunkcodec.ChunkCount(entry.Size, m.ChunkSize)
		if len(entry.Chunks) != want {
			errs = append(errs, fmt.Errorf("file %q: %d chunks listed, size %d needs %d",
				name, len(entry.Chunks), entry.Size, want))
			continue
		}
		for index, chunk := range entry.Chunks {
			if chunk != ChunkName(name, index) {
				errs = append(errs, fmt.Errorf("file %q: chunk %d is named %q, expected %q",
					name, index, chunk, ChunkName(name, index)))
			}
		}
	}
	if sum != m.TotalSize {
		errs = append(errs, fmt.Errorf("total_size %d does not match sum of file sizes %d", m.TotalSize, sum))
	}

	return errors.Join(errs...)
}

// Marshal encodes the manifest as indented JSON. encoding/json sorts
// map keys, so identical manifests produce identical bytes.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Parse decodes and validates a manifest. The version is checked
// before the rest of the document is interpreted, so a manifest from a
// future schema fails with ErrUnsupportedVersion rather than a
// confusing field error.
func Parse(data []byte) (*Manifest, error) {
	var header struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if header.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	if *header.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d (reader supports %d)", ErrUnsupportedVersion, *header.Version, CurrentVersion)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileManifest)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &m, nil
}
