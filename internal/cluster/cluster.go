// Package cluster collapses near-duplicate chat messages before expensive
// downstream processing. It is a pre-processing step independent of
// query-time search: when a fetched message set is large, one
// representative per near-duplicate group is kept and the rest dropped.
package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/vector"
)

// Embedder is the provider contract the clusterer needs.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// minMeaningfulLen is the minimum normalized text length for a message to
// survive the trivial filter.
const minMeaningfulLen = 4

// fillerTokens are normalized texts treated as pure acknowledgements.
var fillerTokens = map[string]struct{}{
	"ok":     {},
	"okay":   {},
	"yes":    {},
	"no":     {},
	"sure":   {},
	"agree":  {},
	"agreed": {},
	"thanks": {},
	"👍":      {},
	"🙏":      {},
	"+1":     {},
}

// Clusterer groups near-duplicate messages and keeps one representative
// per group.
type Clusterer struct {
	embedder Embedder
}

// New creates a Clusterer.
func New(embedder Embedder) *Clusterer {
	return &Clusterer{embedder: embedder}
}

// Reduce shrinks messages to at most the near-duplicate cluster
// representatives, chronologically ordered.
//
// Trivial messages (too short or filler acknowledgements) are stripped
// first with a pure string check, so a set dominated by "ok"/"thanks"
// never pays for an embedding call. If the non-trivial residue is already
// within targetCount, it is returned as-is. Otherwise all residue texts
// are embedded in one batched call and clustered by average-linkage
// agglomerative clustering over pairwise cosine distances, asking for
// max(targetCount, round(0.5*remaining)) clusters. That count bounds the
// output both ways: never more representatives than requested, never
// compressing below half the pre-clustering count. similarityThreshold
// is the configured cutoff naming what the caller treats as
// near-duplicate; merging itself is governed by the cluster count.
//
// Any embedding failure fails the whole call; the caller is expected to
// fall back to the unclustered set.
func (c *Clusterer) Reduce(
	ctx context.Context, messages []domain.Message, targetCount int, similarityThreshold float64,
) ([]domain.Message, error) {
	kept := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if !isTrivial(m.Text()) {
			kept = append(kept, m)
		}
	}

	if len(kept) <= targetCount {
		return kept, nil
	}

	texts := make([]string, len(kept))
	for i, m := range kept {
		texts[i] = m.Text()
	}
	res, err := c.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed for clustering: %w", err)
	}
	if len(res.Embeddings) != len(kept) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(kept), domain.ErrEmbeddingProvider)
	}

	dist := pairwiseCosine(res.Embeddings)

	// Never compress below 50% of the residue, even if targetCount asks
	// for fewer: over-aggressive merging collapses genuinely distinct
	// messages.
	nClusters := targetCount
	if half := int(math.Round(0.5 * float64(len(kept)))); half > nClusters {
		nClusters = half
	}

	groups := agglomerate(dist, nClusters)

	reps := make([]domain.Message, 0, len(groups))
	for _, members := range groups {
		reps = append(reps, kept[representative(members, res.Embeddings)])
	}

	sort.SliceStable(reps, func(i, j int) bool {
		return reps[i].CreatedAt().Before(reps[j].CreatedAt())
	})
	return reps, nil
}

// isTrivial reports whether normalized text is too short or a filler
// acknowledgement. Pure string check, no embedding cost.
func isTrivial(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".!?")
	if _, ok := fillerTokens[norm]; ok {
		return true
	}
	return len([]rune(norm)) < minMeaningfulLen
}

// pairwiseCosine builds the symmetric cosine-distance matrix.
func pairwiseCosine(vs [][]float32) [][]float64 {
	n := len(vs)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := vector.CosineDistance(vs[i], vs[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// representative returns the member whose embedding is closest (Euclidean)
// to the cluster centroid.
func representative(members []int, vs [][]float32) int {
	memberVecs := make([][]float32, len(members))
	for i, m := range members {
		memberVecs[i] = vs[m]
	}
	centroid := vector.Centroid(memberVecs)

	best := members[0]
	bestDist := math.MaxFloat64
	for _, m := range members {
		if d := vector.EuclideanDistance(vs[m], centroid); d < bestDist {
			bestDist = d
			best = m
		}
	}
	return best
}
