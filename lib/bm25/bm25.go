// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bm25

import "math"

// BM25 parameters (Okapi variant, standard values).
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

// Corpus holds the collection-wide statistics BM25 needs.
type Corpus struct {
	// DocumentCount is the number of documents in the index.
	DocumentCount int

	// AverageDocumentLength is the mean token count per document.
	AverageDocumentLength float64
}

// IDF returns the inverse document frequency of a term that occurs in
// documentFrequency documents. Terms present in nearly every document
// get a small positive floor (epsilon) rather than zero, so they still
// contribute a tiny amount to ranking.
func (corpus Corpus) IDF(documentFrequency int) float64 {
	count := float64(corpus.DocumentCount)
	frequency := float64(documentFrequency)
	idf := math.Log(1 + (count-frequency+0.5)/(frequency+0.5))
	if idf <= 0 {
		return paramEpsilon
	}
	return idf
}

// Term returns the BM25 contribution of one query term to one
// document:
//
//	IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * dl/avgdl))
func (corpus Corpus) Term(idf float64, termFrequency int, documentLength int) float64 {
	if termFrequency <= 0 {
		return 0
	}
	average := corpus.AverageDocumentLength
	if average <= 0 {
		average = 1
	}
	frequency := float64(termFrequency)
	numerator := frequency * (paramK1 + 1)
	denominator := frequency + paramK1*(1-paramB+paramB*float64(documentLength)/average)
	return idf * numerator / denominator
}

// AverageLength computes the mean of documentLengths, or zero for an
// empty corpus.
func AverageLength(documentLengths []int) float64 {
	if len(documentLengths) == 0 {
		return 0
	}
	total := 0
	for _, length := range documentLengths {
		total += length
	}
	return float64(total) / float64(len(documentLengths))
}
