// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoUsesInjectedValues(t *testing.T) {
	savedCommit, savedDirty, savedTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = savedCommit, savedDirty, savedTime })

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-03-01T00:00:00Z"
	want := Version + " (abc1234-dirty, 2026-03-01T00:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if got := Commit(); got != "abc1234" {
		t.Errorf("Commit() = %q", got)
	}
}

func TestFull(t *testing.T) {
	full := Full("sitesearch-index")
	if !strings.HasPrefix(full, "sitesearch-index "+Version) {
		t.Errorf("Full() = %q", full)
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() lacks the Go version: %q", full)
	}
}
