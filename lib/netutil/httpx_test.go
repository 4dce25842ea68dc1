// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadLimited(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadLimited(bytes.NewReader([]byte(`{"version":1}`)), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"version":1}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		data, err := ReadLimited(bytes.NewReader(make([]byte, 16)), 16)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 16 {
			t.Fatalf("got %d bytes, want 16", len(data))
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadLimited(bytes.NewReader(make([]byte, 17)), 16)
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("got %v, want ErrResponseTooLarge", err)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		_, err := ReadLimited(&failReader{}, 0)
		if err == nil || errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("got %v, want the reader's error", err)
		}
	})
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("  not found\n")); got != "not found" {
		t.Errorf("ErrorBody = %q", got)
	}
	long := strings.Repeat("x", 4*maxErrorBody)
	if got := ErrorBody(strings.NewReader(long)); len(got) != maxErrorBody {
		t.Errorf("ErrorBody returned %d bytes, want %d", len(got), maxErrorBody)
	}
	if got := ErrorBody(&failReader{}); got != "" {
		t.Errorf("ErrorBody on failing reader = %q", got)
	}
}

type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, errors.New("simulated read failure")
}
