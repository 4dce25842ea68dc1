// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package content defines the page records the search build consumes
// and loads them from the JSON (or JSONC) export produced by the site
// generator. Rendering pages is the generator's job; by the time a
// record reaches this package it carries the final URL, the rendered
// HTML body, and resolved metadata.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Record is one published page as seen by the search build.
type Record struct {
	// Title is the page title.
	Title string `json:"title"`

	// URL is the site-relative or absolute URL of the page.
	URL string `json:"url"`

	// Summary is the page description. May be markdown; see
	// PlainSummary.
	Summary string `json:"summary,omitempty"`

	// Language is the page language code ("en", "zh", ...).
	Language string `json:"language,omitempty"`

	// Tags are taxonomy terms attached to the page.
	Tags []string `json:"tags,omitempty"`

	// RenderedText is the rendered HTML body of the page.
	RenderedText string `json:"rendered_text,omitempty"`

	// Date is the publication date in RFC 3339 form (or a bare
	// YYYY-MM-DD date). Optional.
	Date string `json:"date,omitempty"`

	// Draft pages are never indexed.
	Draft bool `json:"draft,omitempty"`
}

// Validate checks that a record can be indexed.
func (r Record) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("record %q: url is required", r.Title)
	}
	if r.Date != "" {
		if _, err := ParseDate(r.Date); err != nil {
			return fmt.Errorf("record %q: %w", r.URL, err)
		}
	}
	return nil
}

// ParseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func ParseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want RFC 3339 or YYYY-MM-DD)", value)
	}
	return parsed, nil
}

// Published returns the records that are not drafts, preserving order.
// Entry positions in every index follow this order.
func Published(records []Record) []Record {
	published := make([]Record, 0, len(records))
	for _, record := range records {
		if !record.Draft {
			published = append(published, record)
		}
	}
	return published
}

// export is the document shape of a records file: either a bare array
// or an object with a "pages" array.
type export struct {
	Pages []Record `json:"pages"`
}

// Parse decodes a records export. Comments and trailing commas are
// allowed.
func Parse(data []byte) ([]Record, error) {
	stripped := jsonc.ToJSON(data)
	trimmed := strings.TrimSpace(string(stripped))

	var records []Record
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(stripped, &records); err != nil {
			return nil, fmt.Errorf("parsing records: %w", err)
		}
	} else {
		var document export
		if err := json.Unmarshal(stripped, &document); err != nil {
			return nil, fmt.Errorf("parsing records: %w", err)
		}
		records = document.Pages
	}

	for index, record := range records {
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", index, err)
		}
	}
	return records, nil
}

// LoadFile reads and parses a records export from path.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
