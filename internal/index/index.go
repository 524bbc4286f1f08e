// Package index implements the ephemeral per-request similarity index.
// One index is built per search request and discarded with it; vectors are
// never cached across requests because the underlying message text can be
// edited or deleted between calls, and a stale vector would silently
// corrupt rankings. Request-scoped, so no locking.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/vector"
)

// Embedder is the provider contract the index needs.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Entry pairs a message id with its cosine distance to the query.
// Distance is true cosine distance, 1 - cos_sim, in [0,2].
type Entry struct {
	ID       string
	Distance float64
}

// Index holds the embedded candidate set for one request.
type Index struct {
	embedder Embedder
	ids      []string
	vectors  [][]float32
	dim      int
}

// Build embeds every message's text in one batched provider call and
// stores the vectors keyed by id. Construction is all-or-nothing: a
// provider failure or a vector of unexpected dimension invalidates the
// whole index, never a partial one.
func Build(ctx context.Context, embedder Embedder, messages []domain.Message) (*Index, error) {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Text()
	}

	idx := &Index{
		embedder: embedder,
		ids:      make([]string, 0, len(messages)),
		vectors:  make([][]float32, 0, len(messages)),
	}
	if len(messages) == 0 {
		return idx, nil
	}

	res, err := embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	if len(res.Embeddings) != len(messages) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(messages), domain.ErrEmbeddingProvider)
	}

	idx.dim = len(res.Embeddings[0])
	if idx.dim == 0 {
		return nil, fmt.Errorf("provider returned empty vector: %w", domain.ErrEmbeddingProvider)
	}
	for i, emb := range res.Embeddings {
		if len(emb) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, index has %d: %w",
				i, len(emb), idx.dim, domain.ErrDimensionMismatch)
		}
		idx.ids = append(idx.ids, messages[i].ID())
		idx.vectors = append(idx.vectors, emb)
	}

	return idx, nil
}

// Len returns the number of indexed items.
func (idx *Index) Len() int { return len(idx.ids) }

// Query embeds the query text and returns the k nearest entries by cosine
// distance, ascending. Ties are broken by insertion order. When k exceeds
// the index size, all entries are returned.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]Entry, error) {
	if idx.Len() == 0 || k <= 0 {
		return nil, nil
	}

	res, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Embedding) != idx.dim {
		return nil, fmt.Errorf("query vector has dimension %d, index has %d: %w",
			len(res.Embedding), idx.dim, domain.ErrDimensionMismatch)
	}

	entries := make([]Entry, len(idx.ids))
	for i, v := range idx.vectors {
		entries[i] = Entry{ID: idx.ids[i], Distance: vector.CosineDistance(res.Embedding, v)}
	}

	// Stable keeps insertion order for equal distances.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Distance < entries[j].Distance
	})

	if k < len(entries) {
		entries = entries[:k]
	}
	return entries, nil
}
