// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sitebuild

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/sitesearch/lib/chunker"
	"github.com/bureau-foundation/sitesearch/lib/config"
	"github.com/bureau-foundation/sitesearch/lib/content"
	"github.com/bureau-foundation/sitesearch/lib/fulltext"
	"github.com/bureau-foundation/sitesearch/lib/manifest"
	"github.com/bureau-foundation/sitesearch/lib/query"
	"github.com/bureau-foundation/sitesearch/lib/simpleindex"
	"github.com/bureau-foundation/sitesearch/lib/testutil"
)

func siteRecords() []content.Record {
	return []content.Record{
		{Title: "Rust Guide", URL: "/rust/", Summary: "Learn **Rust**.", Date: "2026-01-02", RenderedText: "<p>ownership</p>"},
		{Title: "JS Tips", URL: "/js/", RenderedText: "<p>closures <script>var rust = 1</script></p>"},
		{Title: "Unfinished", URL: "/wip/", Draft: true, RenderedText: "rust"},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Build.OutputDir = filepath.Join(t.TempDir(), "public")
	cfg.Search.ChunkSize = 128
	cfg.Search.SimpleIndex.Gzip = true
	return cfg
}

func TestRunWritesAllArtifacts(t *testing.T) {
	cfg := testConfig(t)
	summary, err := Run(context.Background(), siteRecords(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Documents != 2 || summary.Skipped != 1 {
		t.Errorf("documents %d, skipped %d", summary.Documents, summary.Skipped)
	}
	if !summary.FullSearchEnabled || summary.Manifest == nil || summary.FullIndex == nil {
		t.Fatalf("full search not built: %+v", summary)
	}

	for _, name := range []string{simpleindex.FileName, simpleindex.GzipFileName, "search/" + manifest.FileName} {
		if _, err := os.Stat(filepath.Join(cfg.Build.OutputDir, filepath.FromSlash(name))); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	// Every index file reassembles from its chunks.
	for _, name := range fulltext.Files {
		if _, err := chunker.Reassemble(summary.Manifest, cfg.IndexPath(), name); err != nil {
			t.Errorf("Reassemble(%s): %v", name, err)
		}
	}
	if summary.Manifest.ChunkSize != 128 {
		t.Errorf("ChunkSize = %d", summary.Manifest.ChunkSize)
	}
}

func TestRunOutputIsSearchable(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Run(context.Background(), siteRecords(), cfg, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	site := testutil.NewStaticSite(t, cfg.Build.OutputDir)

	for _, enableFull := range []bool{true, false} {
		engine, err := query.Open(context.Background(), query.Options{
			BaseURL:        site.URL(cfg.Build.IndexDir),
			SimpleIndexURL: site.URL(simpleindex.FileName),
			EnableFull:     enableFull,
		})
		if err != nil {
			t.Fatalf("query.Open: %v", err)
		}
		want := query.BackendSimple
		if enableFull {
			want = query.BackendFull
		}
		if engine.Backend() != want {
			t.Fatalf("Backend = %v, want %v (%s)", engine.Backend(), want, engine.Reason())
		}

		response, err := engine.Search(context.Background(), "rust", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		// Script text and drafts are not indexed.
		if response.Total != 1 || response.Results[0].URL != "/rust/" {
			t.Errorf("%v backend: results = %+v", want, response.Results)
		}
		if response.Results[0].Summary != "Learn Rust." {
			t.Errorf("%v backend: summary = %q, want markdown rendered to text", want, response.Results[0].Summary)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Run(context.Background(), siteRecords(), cfg, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := snapshot(t, cfg.Build.OutputDir)
	if _, err := Run(context.Background(), siteRecords(), cfg, nil); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	after := snapshot(t, cfg.Build.OutputDir)

	if len(before) != len(after) {
		t.Fatalf("file count changed from %d to %d", len(before), len(after))
	}
	for name, data := range before {
		if !bytes.Equal(data, after[name]) {
			t.Errorf("%s changed between identical builds", name)
		}
	}
}

func snapshot(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		relative, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(relative)] = data
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestRunEmptyIndexDisablesFullSearch(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Run(context.Background(), siteRecords(), cfg, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	onlyDrafts := []content.Record{{Title: "Draft", URL: "/d/", Draft: true}}
	summary, err := Run(context.Background(), onlyDrafts, cfg, nil)
	if err != nil {
		t.Fatalf("Run with no published records: %v", err)
	}
	if summary.FullSearchEnabled || summary.Manifest != nil || summary.FullIndex != nil {
		t.Errorf("full search enabled for an empty site: %+v", summary)
	}
	manifestPath := filepath.Join(cfg.IndexPath(), manifest.FileName)
	if _, err := os.Stat(manifestPath); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("stale manifest left in place (err %v)", err)
	}
	if summary.SimpleIndex == nil {
		t.Error("simple index not written")
	}
}

func TestRunSearchDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.Enabled = false
	summary, err := Run(context.Background(), siteRecords(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SimpleIndex != nil || summary.FullSearchEnabled {
		t.Errorf("summary = %+v", summary)
	}
	if _, err := os.Stat(cfg.Build.OutputDir); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("disabled search wrote output")
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.IndexFields = []string{"author"}
	if _, err := Run(context.Background(), siteRecords(), cfg, nil); err == nil || !strings.Contains(err.Error(), "author") {
		t.Errorf("invalid config: got %v", err)
	}

	cfg = testConfig(t)
	bad := append(siteRecords(), content.Record{Title: "No URL"})
	if _, err := Run(context.Background(), bad, cfg, nil); err == nil || !strings.Contains(err.Error(), "url is required") {
		t.Errorf("invalid record: got %v", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, siteRecords(), testConfig(t), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
