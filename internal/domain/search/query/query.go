// Package query defines the validated semantic search query.
package query

import "fmt"

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength    = 4096
	DefaultMaxResults = 10
	MaxMaxResults     = 100
)

// Query is a validated semantic search query. Immutable after construction.
type Query struct {
	text          string
	maxResults    int
	minSimilarity float64
}

// New validates and normalizes search parameters.
// Defaults: maxResults=10, minSimilarity=0.
func New(text string, maxResults int, minSimilarity float64) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("query text is required")
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		maxResults = MaxMaxResults
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return Query{}, fmt.Errorf("min_similarity must be between 0 and 1")
	}

	return Query{text: text, maxResults: maxResults, minSimilarity: minSimilarity}, nil
}

// Text returns the natural-language query text.
func (q *Query) Text() string { return q.text }

// MaxResults returns the maximum results to return.
func (q *Query) MaxResults() int { return q.maxResults }

// MinSimilarity returns the minimum similarity threshold in [0,1].
func (q *Query) MinSimilarity() float64 { return q.minSimilarity }
