// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response body reads.
//
// Index chunks, manifests, and the simple index are fetched from
// static hosts the search runtime does not control. Every body read
// goes through ReadLimited so a misconfigured server or a wrong URL
// pointing at a huge file cannot exhaust memory.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize is the default bound on response body reads: 256 MB.
const MaxResponseSize int64 = 256 << 20

// maxErrorBody bounds the body excerpt included in error messages.
const maxErrorBody = 1024

// ErrResponseTooLarge is returned by ReadLimited when the body exceeds
// the limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadLimited reads body up to limit bytes. A body longer than limit
// fails with ErrResponseTooLarge rather than being silently truncated.
// A limit <= 0 means MaxResponseSize.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxResponseSize
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// ErrorBody reads the start of an error response body for diagnostic
// messages. Read errors are ignored: a partial body is still useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(data))
}
