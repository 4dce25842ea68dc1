// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simpleindex

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAndLoad(t *testing.T) {
	directory := t.TempDir()
	index := Build(sampleRecords(), Options{})

	artifact, err := index.Write(directory, WriteOptions{Gzip: true})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if artifact.Oversized {
		t.Error("small index flagged as oversized")
	}
	if artifact.GzipSize == 0 || artifact.GzipSize >= artifact.Size {
		t.Errorf("gzip size %d vs plain %d", artifact.GzipSize, artifact.Size)
	}

	for _, path := range []string{artifact.Path, artifact.GzipPath} {
		loaded, err := Load(path, 1<<20)
		if err != nil {
			t.Fatalf("Load(%s): %v", filepath.Base(path), err)
		}
		if loaded.DocumentCount() != index.DocumentCount() {
			t.Errorf("%s: %d documents, want %d", filepath.Base(path), loaded.DocumentCount(), index.DocumentCount())
		}
		if results := loaded.Search("rust", 10); len(results) != 2 {
			t.Errorf("%s: Search(rust) returned %d results", filepath.Base(path), len(results))
		}
	}
}

func TestWriteWarnsWhenOversized(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	artifact, err := Build(sampleRecords(), Options{}).Write(t.TempDir(), WriteOptions{
		MaxSize: 64,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !artifact.Oversized {
		t.Error("artifact not flagged as oversized")
	}
	if !strings.Contains(logs.String(), "exceeds recommended size") {
		t.Errorf("no size warning logged: %s", logs.String())
	}
	if _, err := os.Stat(artifact.Path); err != nil {
		t.Errorf("oversized artifact not written: %v", err)
	}
}

func TestDecodeLimit(t *testing.T) {
	data, err := Build(sampleRecords(), Options{}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Decode(bytes.NewReader(data), false, int64(len(data)-1)); err == nil {
		t.Error("Decode accepted an artifact larger than the limit")
	}
	if _, err := Decode(bytes.NewReader(data), false, int64(len(data))); err != nil {
		t.Errorf("Decode at exact limit: %v", err)
	}
}
