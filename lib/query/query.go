// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package query is the single search entry point of the runtime. An
// Engine picks its backend once, when it is opened: the chunked
// full-text index when its manifest loads, otherwise the simple
// index, otherwise nothing. Unavailability is a normal outcome, not an
// error: a site whose search assets are missing still renders, and
// every query answers with StatusUnavailable.
package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bureau-foundation/sitesearch/lib/clock"
	"github.com/bureau-foundation/sitesearch/lib/fulltext"
	"github.com/bureau-foundation/sitesearch/lib/remotestore"
	"github.com/bureau-foundation/sitesearch/lib/result"
	"github.com/bureau-foundation/sitesearch/lib/simpleindex"
)

// Backend identifies the index an Engine queries.
type Backend int

const (
	// BackendUnavailable answers every query with StatusUnavailable.
	BackendUnavailable Backend = iota

	// BackendFull queries the chunked full-text index.
	BackendFull

	// BackendSimple queries the in-memory simple index.
	BackendSimple
)

func (backend Backend) String() string {
	switch backend {
	case BackendFull:
		return "full"
	case BackendSimple:
		return "simple"
	case BackendUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("Backend(%d)", int(backend))
	}
}

// MarshalText encodes the backend by name in JSON responses.
func (backend Backend) MarshalText() ([]byte, error) {
	return []byte(backend.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (backend *Backend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "full":
		*backend = BackendFull
	case "simple":
		*backend = BackendSimple
	case "unavailable":
		*backend = BackendUnavailable
	default:
		return fmt.Errorf("unknown search backend %q", text)
	}
	return nil
}

// Status is the outcome of a query.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// Response is the answer to one query.
type Response struct {
	Status  Status          `json:"status"`
	Backend Backend         `json:"backend"`
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Results []result.Result `json:"results"`

	// Duration is the time spent answering, on the engine's clock.
	Duration   time.Duration `json:"-"`
	DurationMS float64       `json:"duration_ms"`
}

// Options configures Open.
type Options struct {
	// BaseURL is the URL of the chunked index directory, the one
	// holding search-manifest.json.
	BaseURL string

	// SimpleIndexURL is the URL of the simple index artifact. A URL
	// ending in ".gz" is gunzipped. Empty disables the fallback.
	SimpleIndexURL string

	// EnableFull turns on the full-text backend. When false the
	// manifest is never fetched.
	EnableFull bool

	// MaxSimpleIndexSize bounds the decoded simple index in bytes.
	// Zero means netutil.MaxResponseSize.
	MaxSimpleIndexSize int64

	// Fetcher retrieves the manifest, chunks, and simple index. Nil
	// means an HTTPFetcher.
	Fetcher remotestore.Fetcher

	// Clock times queries. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives backend selection diagnostics. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Engine answers queries against the backend chosen by Open. It is
// safe for concurrent use.
type Engine struct {
	backend Backend
	reason  string

	full   *fulltext.Reader
	store  *remotestore.Store
	simple *simpleindex.Index

	clock  clock.Clock
	logger *slog.Logger
}

// Open selects a backend. It only returns an error when ctx ends
// before a backend could be chosen; missing or broken indexes produce
// an Engine with a fallback backend and a Reason.
func Open(ctx context.Context, options Options) (*Engine, error) {
	engine := newEngine(options.Clock, options.Logger)
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = &remotestore.HTTPFetcher{}
	}

	var reasons []string
	if options.EnableFull && options.BaseURL != "" {
		store, reader, err := openFull(ctx, options.BaseURL, fetcher, engine.logger)
		if err == nil {
			engine.backend = BackendFull
			engine.store = store
			engine.full = reader
			engine.logger.Info("search backend selected",
				"backend", engine.backend.String(),
				"documents", reader.DocumentCount(),
				"index_size", store.TotalSize(),
			)
			return engine, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		engine.logger.Warn("full-text search unavailable", "base_url", options.BaseURL, "error", err)
		reasons = append(reasons, "full-text: "+err.Error())
	} else {
		reasons = append(reasons, "full-text: disabled")
	}

	if options.SimpleIndexURL != "" {
		index, err := openSimple(ctx, options.SimpleIndexURL, options.MaxSimpleIndexSize, fetcher)
		if err == nil {
			engine.backend = BackendSimple
			engine.simple = index
			engine.reason = strings.Join(reasons, "; ")
			engine.logger.Info("search backend selected",
				"backend", engine.backend.String(),
				"documents", index.DocumentCount(),
				"reason", engine.reason,
			)
			return engine, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		engine.logger.Warn("simple search unavailable", "url", options.SimpleIndexURL, "error", err)
		reasons = append(reasons, "simple: "+err.Error())
	} else {
		reasons = append(reasons, "simple: no index URL")
	}

	engine.reason = strings.Join(reasons, "; ")
	engine.logger.Warn("search unavailable", "reason", engine.reason)
	return engine, nil
}

func openFull(ctx context.Context, baseURL string, fetcher remotestore.Fetcher, logger *slog.Logger) (*remotestore.Store, *fulltext.Reader, error) {
	store, err := remotestore.Open(ctx, baseURL, remotestore.Options{Fetcher: fetcher, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	reader, err := fulltext.Open(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	return store, reader, nil
}

func openSimple(ctx context.Context, url string, limit int64, fetcher remotestore.Fetcher) (*simpleindex.Index, error) {
	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	gzipped := strings.HasSuffix(url, ".gz")
	return simpleindex.Decode(bytes.NewReader(data), gzipped, limit)
}

// NewSimple returns an Engine over an already loaded simple index.
func NewSimple(index *simpleindex.Index, logger *slog.Logger) *Engine {
	engine := newEngine(nil, logger)
	engine.backend = BackendSimple
	engine.simple = index
	return engine
}

// NewFull returns an Engine over an open full-text reader.
func NewFull(reader *fulltext.Reader, logger *slog.Logger) *Engine {
	engine := newEngine(nil, logger)
	engine.backend = BackendFull
	engine.full = reader
	return engine
}

func newEngine(c clock.Clock, logger *slog.Logger) *Engine {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backend: BackendUnavailable, clock: c, logger: logger}
}

// Backend returns the backend chosen at Open.
func (engine *Engine) Backend() Backend { return engine.backend }

// Reason explains why the engine is not on the full-text backend.
// Empty when it is.
func (engine *Engine) Reason() string { return engine.reason }

// Store returns the chunk store behind the full-text backend, or nil.
func (engine *Engine) Store() *remotestore.Store { return engine.store }

// DocumentCount returns the number of searchable documents.
func (engine *Engine) DocumentCount() int {
	switch engine.backend {
	case BackendFull:
		return engine.full.DocumentCount()
	case BackendSimple:
		return engine.simple.DocumentCount()
	default:
		return 0
	}
}

// Search runs query and returns at most limit results (limit <= 0
// means result.DefaultLimit). An unavailable engine answers with
// StatusUnavailable and no error. On the full-text backend a chunk
// that cannot be fetched fails this query with an error wrapping
// *remotestore.ChunkFetchError; later queries are unaffected.
func (engine *Engine) Search(ctx context.Context, query string, limit int) (*Response, error) {
	start := engine.clock.Now()
	response := &Response{
		Status:  StatusOK,
		Backend: engine.backend,
		Query:   query,
	}

	var results []result.Result
	switch engine.backend {
	case BackendFull:
		var err error
		results, err = engine.full.Search(ctx, query, limit)
		if err != nil {
			var fetchError *remotestore.ChunkFetchError
			if errors.As(err, &fetchError) {
				engine.logger.Warn("search query failed", "query", query, "chunk", fetchError.Chunk, "error", err)
			}
			return nil, fmt.Errorf("searching %q: %w", query, err)
		}
	case BackendSimple:
		results = engine.simple.Search(query, limit)
	case BackendUnavailable:
		response.Status = StatusUnavailable
		results = []result.Result{}
	}

	response.Results = results
	response.Total = len(results)
	response.Duration = clock.Since(engine.clock, start)
	response.DurationMS = float64(response.Duration) / float64(time.Millisecond)
	return response, nil
}
