// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build version information for the sitesearch
// commands.
//
// Values are injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/sitesearch/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When GitCommit was not injected, the VCS revision recorded by the Go
// toolchain is used instead.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string for --version output.
func Info() string {
	commit, dirty := Commit(), ""
	if isDirty() {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, dirty, BuildTime)
}

// Full returns Info followed by the Go version and platform.
func Full(program string) string {
	return fmt.Sprintf("%s %s\n  Go: %s\n  Platform: %s/%s",
		program, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Commit returns the git commit SHA, falling back to the VCS revision
// embedded by the toolchain.
func Commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	if revision := buildSetting("vcs.revision"); revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		return revision
	}
	return GitCommit
}

func isDirty() bool {
	if GitCommit != "unknown" {
		return GitDirty == "true"
	}
	return buildSetting("vcs.modified") == "true"
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
