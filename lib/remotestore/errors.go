// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
)

var (
	// ErrManifestUnavailable means the manifest could not be fetched:
	// a network failure or a non-2xx response. Full search is off for
	// the session.
	ErrManifestUnavailable = errors.New("search manifest unavailable")

	// ErrManifestCorrupt means the manifest was fetched but is not a
	// valid manifest this reader understands, including an unknown
	// schema version (wraps manifest.ErrUnsupportedVersion).
	ErrManifestCorrupt = errors.New("search manifest corrupt")

	// ErrFileNotFound is returned for a file the manifest does not
	// list.
	ErrFileNotFound = errors.New("file not in manifest")

	// ErrInvalidRange is returned for a range that is empty or extends
	// past the end of the file.
	ErrInvalidRange = chunkcodec.ErrInvalidRange
)

// ChunkFetchError reports a chunk that could not be fetched or did not
// match the manifest. The Read that hit it fails; the store stays
// usable and a later Read fetches the chunk again.
type ChunkFetchError struct {
	// Chunk is the chunk object name, "{file}.{index}".
	Chunk string

	Err error
}

func (e *ChunkFetchError) Error() string {
	return fmt.Sprintf("fetching chunk %s: %v", e.Chunk, e.Err)
}

func (e *ChunkFetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int

	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}
