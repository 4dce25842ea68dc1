// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tokenize turns page text and search queries into index
// terms. The same pipeline runs at build time and at query time, so a
// query term matches an index term exactly when both came from the
// same text:
//
//	unicode word segmentation → lowercase → split at punctuation →
//	CJK bigrams (with unigrams)
//
// Word tokens shorter than two runes are dropped. A single ideograph
// is kept, since it is a meaningful unit in Chinese and Japanese text;
// adjacent ideographs additionally produce bigram terms so that a
// two-character query word matches without a dictionary segmenter.
package tokenize

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// MinTermLength is the minimum number of runes in a non-ideographic
// term.
const MinTermLength = 2

var (
	wordTokenizer = unicodetokenizer.NewUnicodeTokenizer()
	lowercaser    = lowercase.NewLowerCaseFilter()
	wordSplitter  = wordPartFilter{}
	bigrammer     = cjk.NewCJKBigramFilter(true)
)

// Tokenize returns the terms of text in order of appearance, with
// repeats. Callers that need term frequencies count the repeats;
// callers that need a set use Unique.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	var stream analysis.TokenStream = wordTokenizer.Tokenize([]byte(text))
	stream = lowercaser.Filter(stream)
	stream = wordSplitter.Filter(stream)
	stream = bigrammer.Filter(stream)

	terms := make([]string, 0, len(stream))
	for _, token := range stream {
		if keep(token.Term) {
			terms = append(terms, string(token.Term))
		}
	}
	return terms
}

// wordPartFilter splits word tokens at every rune that is neither a
// letter nor a number. Word segmentation keeps "rust's", "node.js" and
// "snake_case" whole; the index wants their parts. Ideographic tokens
// pass through for the bigram filter.
type wordPartFilter struct{}

func (wordPartFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	output := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if token.Type == analysis.Ideographic || !hasSeparator(token.Term) {
			output = append(output, token)
			continue
		}
		start := -1
		for offset, r := range string(token.Term) {
			if isWordRune(r) {
				if start < 0 {
					start = offset
				}
				continue
			}
			if start >= 0 {
				output = append(output, wordPart(token, start, offset))
				start = -1
			}
		}
		if start >= 0 {
			output = append(output, wordPart(token, start, len(token.Term)))
		}
	}
	return output
}

func wordPart(token *analysis.Token, start, end int) *analysis.Token {
	return &analysis.Token{
		Term:     token.Term[start:end:end],
		Start:    token.Start + start,
		End:      token.Start + end,
		Type:     token.Type,
		KeyWord:  token.KeyWord,
		Position: token.Position,
	}
}

func hasSeparator(term []byte) bool {
	for _, r := range string(term) {
		if !isWordRune(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// keep applies the length rule: at least MinTermLength runes, or a
// single ideographic rune.
func keep(term []byte) bool {
	count := utf8.RuneCount(term)
	if count >= MinTermLength {
		return true
	}
	if count == 1 {
		r, _ := utf8.DecodeRune(term)
		return isIdeographic(r)
	}
	return false
}

// isIdeographic reports whether r belongs to a script written without
// spaces between words (Han, Hiragana, Katakana). The prolonged sound
// marks are Common script but only ever appear inside kana words.
func isIdeographic(r rune) bool {
	switch r {
	case '\u30fc', '\uff70':
		return true
	}
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// Unique returns the distinct terms of text in order of first
// appearance. Query tokenization uses this form.
func Unique(text string) []string {
	terms := Tokenize(text)
	seen := make(map[string]struct{}, len(terms))
	unique := terms[:0]
	for _, term := range terms {
		if _, duplicate := seen[term]; duplicate {
			continue
		}
		seen[term] = struct{}{}
		unique = append(unique, term)
	}
	return unique
}

// Field identifies a page field that contributes index terms.
type Field uint8

const (
	FieldTitle Field = 1 << iota
	FieldSummary
	FieldBody
	FieldTags
)

// AllFields includes every field.
const AllFields = FieldTitle | FieldSummary | FieldBody | FieldTags

// Has reports whether f includes field.
func (f Field) Has(field Field) bool { return f&field != 0 }

// String returns the configuration name of a single field.
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldSummary:
		return "summary"
	case FieldBody:
		return "body"
	case FieldTags:
		return "tags"
	default:
		return "fields"
	}
}

// ParseFields converts configuration field names into a Field set.
func ParseFields(names []string) (Field, error) {
	var fields Field
	for _, name := range names {
		switch name {
		case "title":
			fields |= FieldTitle
		case "summary":
			fields |= FieldSummary
		case "body":
			fields |= FieldBody
		case "tags":
			fields |= FieldTags
		default:
			return 0, &UnknownFieldError{Name: name}
		}
	}
	return fields, nil
}

// UnknownFieldError reports an index field name that is not one of
// title, summary, body, tags.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown index field %q (valid: title, summary, body, tags)", e.Name)
}

// Document is the text of one page, split by field. Body is plain
// text; use StripHTML on rendered output first.
type Document struct {
	Title   string
	Summary string
	Body    string
	Tags    []string
}

// Counts tokenizes each selected field and returns, per term, the
// number of occurrences across all fields and the set of fields it
// occurred in.
func Counts(document Document, fields Field) map[string]TermCount {
	counts := make(map[string]TermCount)
	add := func(field Field, text string) {
		if !fields.Has(field) {
			return
		}
		for _, term := range Tokenize(text) {
			count := counts[term]
			count.Frequency++
			count.Fields |= field
			counts[term] = count
		}
	}
	add(FieldTitle, document.Title)
	add(FieldSummary, document.Summary)
	add(FieldBody, document.Body)
	for _, tag := range document.Tags {
		add(FieldTags, tag)
	}
	return counts
}

// TermCount is the per-document occurrence record of one term.
type TermCount struct {
	Frequency int
	Fields    Field
}

// Terms returns the sorted, deduplicated terms of the selected fields.
func Terms(document Document, fields Field) []string {
	counts := Counts(document, fields)
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// TokenCount returns the total number of term occurrences in the
// selected fields: the document length used for BM25 normalization.
func TokenCount(counts map[string]TermCount) int {
	total := 0
	for _, count := range counts {
		total += count.Frequency
	}
	return total
}
