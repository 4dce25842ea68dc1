// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remotestore reads a chunked search index from a static host.
//
// A Store is opened from the index base URL: it fetches the manifest
// once and from then on maps every byte-range read onto the chunk
// objects that cover it. Missing chunks are fetched concurrently and
// kept for the life of the Store, so repeated and overlapping queries
// touch the network only for chunks no earlier query needed. Two
// reads that need the same missing chunk at the same time share one
// fetch.
//
// The cache is unbounded. A session that eventually touches every
// chunk holds the whole index in memory, which bounds the index size
// this store is suitable for. ClearCache releases it.
//
// The Store never retries a failed chunk on its own. A failed read
// returns *ChunkFetchError and the next read of that chunk fetches it
// again; callers that want retries wrap reads in a RetryPolicy.
package remotestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
	"github.com/bureau-foundation/sitesearch/lib/manifest"
	"github.com/bureau-foundation/sitesearch/lib/memo"
)

// Options configures a Store.
type Options struct {
	// Fetcher retrieves objects. Nil means an HTTPFetcher with the
	// default client.
	Fetcher Fetcher

	// Logger receives fetch diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Store is a read-only view of a chunked index. It is safe for
// concurrent use.
type Store struct {
	baseURL  string
	manifest *manifest.Manifest
	fetcher  Fetcher
	logger   *slog.Logger

	chunks  memo.Memo[[]byte]
	fetches atomic.Int64
}

// Open fetches and validates the manifest at
// {baseURL}/search-manifest.json and returns a Store over it.
//
// A fetch failure returns ErrManifestUnavailable; an unparseable or
// inconsistent manifest, or one with an unknown version, returns
// ErrManifestCorrupt. Both mean full search is unavailable.
func Open(ctx context.Context, baseURL string, options Options) (*Store, error) {
	store := newStore(baseURL, nil, options)
	manifestURL := store.objectURL(manifest.FileName)

	store.fetches.Add(1)
	data, err := store.fetcher.Fetch(ctx, manifestURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrManifestUnavailable, err)
	}

	parsed, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestCorrupt, manifestURL, err)
	}
	store.manifest = parsed
	store.logger.Debug("search manifest loaded",
		"url", manifestURL,
		"files", len(parsed.Files),
		"chunks", parsed.ChunkCount(),
		"total_size", parsed.TotalSize,
	)
	return store, nil
}

// NewStore returns a Store over an already loaded manifest.
func NewStore(baseURL string, m *manifest.Manifest, options Options) (*Store, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", ErrManifestCorrupt)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestCorrupt, err)
	}
	return newStore(baseURL, m, options), nil
}

func newStore(baseURL string, m *manifest.Manifest, options Options) *Store {
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		baseURL:  strings.TrimRight(baseURL, "/"),
		manifest: m,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Read returns the bytes of r within file, exactly r.Len() long.
//
// Cached chunks are used directly. The others are fetched
// concurrently, and assembly starts only once all of them have
// arrived. If any chunk fails the whole read fails with
// *ChunkFetchError; chunks that did arrive stay cached.
func (store *Store) Read(ctx context.Context, file string, r chunkcodec.Range) ([]byte, error) {
	entry, exists := store.manifest.File(file)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, file)
	}
	if err := r.Validate(entry.Size); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if r.Len() == 0 {
		return []byte{}, nil
	}

	first, last := chunkcodec.Covering(r, store.manifest.ChunkSize)
	chunks := make([][]byte, last-first+1)

	group, groupContext := errgroup.WithContext(ctx)
	for index := first; index <= last; index++ {
		if data, ok := store.chunks.Peek(entry.Chunks[index]); ok {
			chunks[index-first] = data
			continue
		}
		group.Go(func() error {
			data, err := store.chunk(groupContext, file, entry, index)
			if err != nil {
				return err
			}
			chunks[index-first] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		// A sibling's failure cancels groupContext; report the caller's
		// own cancellation only when it really happened.
		if ctxErr := ctx.Err(); ctxErr != nil && !isChunkFetchError(err) {
			return nil, ctxErr
		}
		return nil, err
	}

	return chunkcodec.Assemble(chunks, store.manifest.ChunkSize, r)
}

// ReadRange is Read under the name fulltext.RangeReader expects.
func (store *Store) ReadRange(ctx context.Context, file string, r chunkcodec.Range) ([]byte, error) {
	return store.Read(ctx, file, r)
}

// ReadFile returns the whole of file.
func (store *Store) ReadFile(ctx context.Context, file string) ([]byte, error) {
	entry, exists := store.manifest.File(file)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, file)
	}
	if entry.Size == 0 {
		return []byte{}, nil
	}
	return store.Read(ctx, file, chunkcodec.Range{Start: 0, End: entry.Size})
}

// FileSize returns the size of file and whether the manifest lists it.
func (store *Store) FileSize(file string) (int64, bool) {
	entry, exists := store.manifest.File(file)
	return entry.Size, exists
}

// chunk returns chunk index of file from the cache or the network.
func (store *Store) chunk(ctx context.Context, file string, entry manifest.FileManifest, index int) ([]byte, error) {
	name := entry.Chunks[index]
	return store.chunks.Get(ctx, name, func(ctx context.Context) ([]byte, error) {
		chunkURL := store.objectURL(name)
		store.fetches.Add(1)
		data, err := store.fetcher.Fetch(ctx, chunkURL)
		if err != nil {
			store.logger.Warn("chunk fetch failed", "chunk", name, "url", chunkURL, "error", err)
			return nil, &ChunkFetchError{Chunk: name, Err: err}
		}

		want := int64(store.manifest.ChunkSize)
		if index == len(entry.Chunks)-1 {
			want = entry.Size - int64(index)*int64(store.manifest.ChunkSize)
		}
		if int64(len(data)) != want {
			return nil, &ChunkFetchError{
				Chunk: name,
				Err:   fmt.Errorf("got %d bytes, manifest expects %d", len(data), want),
			}
		}
		store.logger.Debug("chunk fetched", "chunk", name, "file", file, "size", len(data))
		return data, nil
	})
}

func (store *Store) objectURL(name string) string {
	return store.baseURL + "/" + name
}

func isChunkFetchError(err error) bool {
	var fetchError *ChunkFetchError
	return errors.As(err, &fetchError)
}

// Manifest returns the manifest the store reads through. Callers must
// not modify it.
func (store *Store) Manifest() *manifest.Manifest { return store.manifest }

// Files returns the index file names in sorted order.
func (store *Store) Files() []string { return store.manifest.FileNames() }

// TotalSize returns the total size of the index files in bytes.
func (store *Store) TotalSize() int64 { return store.manifest.TotalSize }

// CachedChunkCount returns the number of chunks held in memory.
func (store *Store) CachedChunkCount() int { return store.chunks.Len() }

// ClearCache drops every cached chunk.
func (store *Store) ClearCache() { store.chunks.Reset() }

// FetchCount returns the number of objects requested from the host,
// including the manifest.
func (store *Store) FetchCount() int64 { return store.fetches.Load() }
