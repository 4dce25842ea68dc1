// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sitesearch/lib/query"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	urlStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	metaStyle      = lipgloss.NewStyle().Faint(true)
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// render writes a human-readable result list. Lines are truncated to
// width display cells when width > 0.
func render(writer io.Writer, response *query.Response, reason string, width int) {
	line := func(text string) {
		if width > 0 {
			text = ansi.Truncate(text, width, "…")
		}
		fmt.Fprintln(writer, text)
	}

	if response.Status == query.StatusUnavailable {
		line(warningStyle.Render("search unavailable"))
		if reason != "" {
			line(metaStyle.Render(reason))
		}
		return
	}

	header := fmt.Sprintf("%d results for %q (%s index, %.1f ms)",
		response.Total, response.Query, response.Backend, response.DurationMS)
	line(metaStyle.Render(header))
	if response.Backend == query.BackendSimple && reason != "" {
		line(metaStyle.Render("full-text unavailable: " + reason))
	}

	terms := tokenize.Unique(response.Query)
	for position, result := range response.Results {
		fmt.Fprintln(writer)
		line(fmt.Sprintf("%2d. %s", position+1, titleStyle.Render(result.Title)))
		line("    " + urlStyle.Render(result.URL))
		if result.Snippet != "" {
			line("    " + highlight(result.Snippet, terms))
		}
		var meta []string
		if result.Date != "" {
			meta = append(meta, result.Date)
		}
		if len(result.Tags) > 0 {
			meta = append(meta, strings.Join(result.Tags, ", "))
		}
		meta = append(meta, fmt.Sprintf("score %.2f", result.Score))
		line("    " + metaStyle.Render(strings.Join(meta, " · ")))
	}
}

// highlight styles every case-insensitive occurrence of terms in text.
// Text whose lowercase form changes byte length is returned unstyled.
func highlight(text string, terms []string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) || len(terms) == 0 {
		return text
	}

	marked := make([]bool, len(text))
	for _, term := range terms {
		for offset := 0; ; {
			index := strings.Index(lower[offset:], term)
			if index < 0 {
				break
			}
			start := offset + index
			for i := start; i < start+len(term); i++ {
				marked[i] = true
			}
			offset = start + len(term)
		}
	}

	var builder strings.Builder
	for start := 0; start < len(text); {
		end := start
		for end < len(text) && marked[end] == marked[start] {
			end++
		}
		if marked[start] {
			builder.WriteString(highlightStyle.Render(text[start:end]))
		} else {
			builder.WriteString(text[start:end])
		}
		start = end
	}
	return builder.String()
}
