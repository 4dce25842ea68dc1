// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripHTML extracts the visible text of an HTML fragment. Script and
// style contents are dropped, entities are decoded, and runs of
// whitespace collapse to a single space. Tag boundaries become spaces
// so words in adjacent block elements do not merge.
func StripHTML(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var builder strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way, the text so far
			// is the result.
			return strings.Join(strings.Fields(builder.String()), " ")

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				skipDepth++
			}
			builder.WriteByte(' ')

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				if skipDepth > 0 {
					skipDepth--
				}
			}
			builder.WriteByte(' ')

		case html.SelfClosingTagToken:
			builder.WriteByte(' ')

		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
			}
		}
	}
}
