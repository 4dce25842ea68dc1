// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// The goldmark parser is stateless between calls and safe to share.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownInstance
}

// PlainSummary renders a markdown summary as plain text: emphasis,
// links, and code markers are removed, raw HTML is dropped, and block
// boundaries become single spaces. Plain text input passes through
// with whitespace normalized.
func PlainSummary(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	source := []byte(markdown)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	var builder strings.Builder
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				builder.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := node.(type) {
		case *ast.Text:
			builder.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(node.Value)
		case *ast.AutoLink:
			builder.Write(node.Label(source))
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for index := 0; index < lines.Len(); index++ {
				segment := lines.At(index)
				builder.Write(segment.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(builder.String()), " ")
}
