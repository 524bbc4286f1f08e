package search

import (
	"sort"

	"github.com/synapse-cloud/chatsense/internal/domain/search/result"
	"github.com/synapse-cloud/chatsense/internal/index"
)

// rankByThreshold converts raw cosine distances to normalized similarity
// scores, drops everything below minSimilarity, stable-sorts descending,
// and truncates to maxResults.
//
// similarity = 1 - distance/2, clamped to [0,1]. The index reports true
// cosine distance in [0,2], so this is the only conversion in the
// codebase. An empty return is a valid outcome, not an error: the fixed
// threshold exists precisely so a query with no real match returns
// nothing instead of the least-irrelevant top-k.
func rankByThreshold(entries []index.Entry, minSimilarity float64, maxResults int) []result.Result {
	type scored struct {
		id  string
		sim float64
	}

	passed := make([]scored, 0, len(entries))
	for _, e := range entries {
		sim := 1 - e.Distance/2
		if sim < 0 {
			sim = 0
		}
		if sim > 1 {
			sim = 1
		}
		if sim < minSimilarity {
			continue
		}
		passed = append(passed, scored{id: e.ID, sim: sim})
	}

	// Stable: ties keep the index's insertion-order tie-break.
	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].sim > passed[j].sim
	})

	if len(passed) > maxResults {
		passed = passed[:maxResults]
	}

	results := make([]result.Result, len(passed))
	for i, s := range passed {
		results[i] = result.New(s.id, s.sim, i+1, "")
	}
	return results
}
