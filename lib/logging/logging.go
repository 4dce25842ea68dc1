// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the slog logger shared by the sitesearch
// commands. Records go to stderr, as text when stderr is a terminal and
// as JSON otherwise (CI, scripts, build pipelines).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParseLevel maps a level name (debug, info, warn, error) to a
// slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", name)
	}
}

// New returns a logger on stderr at the named level and installs it as
// the slog default.
func New(level string) (*slog.Logger, error) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return NewWriter(os.Stderr, level)
	}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed}))
	slog.SetDefault(logger)
	return logger, nil
}

// NewWriter returns a JSON logger writing to writer and installs it as
// the slog default.
func NewWriter(writer io.Writer, level string) (*slog.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: parsed,
	}))
	slog.SetDefault(logger)
	return logger, nil
}
