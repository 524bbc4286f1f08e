// Package result defines the scored search hit returned to callers.
package result

// Result is a single ranked search hit. Similarity is in [0,1];
// Rank is 1-based position in the returned list.
type Result struct {
	id          string
	similarity  float64
	rank        int
	explanation string
}

// New creates a search result.
func New(id string, similarity float64, rank int, explanation string) Result {
	return Result{id: id, similarity: similarity, rank: rank, explanation: explanation}
}

// ID returns the message identifier.
func (r *Result) ID() string { return r.id }

// Similarity returns the normalized similarity score in [0,1].
func (r *Result) Similarity() float64 { return r.similarity }

// Rank returns the 1-based result position.
func (r *Result) Rank() int { return r.rank }

// Explanation returns the optional reranker relevance note.
func (r *Result) Explanation() string { return r.explanation }
