// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sitebuild runs the search stage of a static site build: it
// turns the rendered page records into the simple index artifact and
// the chunked full-text index, laid out in the site output directory
// as
//
//	{output_dir}/search.json            simple index
//	{output_dir}/search.json.gz         optional gzip sibling
//	{output_dir}/{index_dir}/search-manifest.json
//	{output_dir}/{index_dir}/{file}.{n} full-text index chunks
package sitebuild

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/sitesearch/lib/chunker"
	"github.com/bureau-foundation/sitesearch/lib/config"
	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/fulltext"
	"github.com/bureau-foundation/sitesearch/lib/manifest"
	"github.com/bureau-foundation/sitesearch/lib/simpleindex"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// Summary describes what a build produced.
type Summary struct {
	// Documents is the number of published records indexed.
	Documents int

	// Skipped is the number of drafts left out.
	Skipped int

	// SimpleIndex is nil when the simple index is disabled.
	SimpleIndex *simpleindex.Artifact

	// FullIndex and Manifest are nil when full search is disabled or
	// there was nothing to index.
	FullIndex *fulltext.Stats
	Manifest  *manifest.Manifest

	// FullSearchEnabled reports whether a manifest was published.
	FullSearchEnabled bool
}

// Run builds the search indexes for records. Filesystem failures abort
// the build. An empty full-text index only disables full search: the
// warning is logged and no manifest is published.
func Run(ctx context.Context, records []content.Record, cfg *config.Config, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Search.Enabled {
		logger.Info("search disabled, skipping index build")
		return &Summary{}, nil
	}
	fields, err := cfg.Fields()
	if err != nil {
		return nil, err
	}

	published := content.Published(records)
	var invalid []error
	for _, record := range published {
		if err := record.Validate(); err != nil {
			invalid = append(invalid, err)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid records: %w", errors.Join(invalid...))
	}
	summary := &Summary{
		Documents: len(published),
		Skipped:   len(records) - len(published),
	}

	if err := os.MkdirAll(cfg.Build.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if cfg.Search.SimpleIndex.Enabled {
		index := simpleindex.Build(published, simpleindex.Options{Fields: fields})
		artifact, err := index.Write(cfg.Build.OutputDir, simpleindex.WriteOptions{
			Gzip:    cfg.Search.SimpleIndex.Gzip,
			MaxSize: cfg.Search.SimpleIndex.MaxSize,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		summary.SimpleIndex = artifact
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Search.Full.Enabled {
		if err := buildFull(ctx, published, cfg, fields, logger, summary); err != nil {
			return nil, err
		}
	}

	logger.Info("search index build complete",
		"documents", summary.Documents,
		"drafts_skipped", summary.Skipped,
		"simple_index", summary.SimpleIndex != nil,
		"full_search", summary.FullSearchEnabled,
	)
	return summary, nil
}

func buildFull(ctx context.Context, published []content.Record, cfg *config.Config, fields tokenize.Field, logger *slog.Logger, summary *Summary) error {
	staging, err := os.MkdirTemp("", "sitesearch-index-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if len(published) > 0 {
		stats, err := fulltext.Write(staging, published, fulltext.WriteOptions{
			Fields:        fields,
			ExcerptLength: cfg.Search.Full.ExcerptLength,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		summary.FullIndex = stats
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	indexPath := cfg.IndexPath()
	manifestPath := filepath.Join(indexPath, manifest.FileName)
	m, err := chunker.ChunkDirectory(staging, indexPath, chunker.Config{
		ChunkSize: cfg.Search.ChunkSize,
		Logger:    logger,
	})
	if errors.Is(err, chunker.ErrEmptyIndex) {
		logger.Warn("full-text index is empty, full search disabled", "index_dir", indexPath)
		summary.FullIndex = nil
		// A manifest from an earlier build would point at an index that
		// no longer matches the site.
		if err := os.Remove(manifestPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &chunker.IOError{Op: "remove", Path: manifestPath, Err: err}
		}
		return nil
	}
	if err != nil {
		return err
	}
	if err := chunker.WriteManifest(m, manifestPath); err != nil {
		return err
	}
	summary.Manifest = m
	summary.FullSearchEnabled = true
	return nil
}
