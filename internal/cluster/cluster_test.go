package cluster

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	vecs  map[string][]float32
	err   error
	calls int
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vecs[t]
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func msgAt(id, text string, sec int64) domain.Message {
	return domain.NewMessage(id, text, "u1", "Alice", "conv-1", time.Unix(1700000000+sec, 0))
}

// --- Tests ---

func TestIsTrivial(t *testing.T) {
	trivial := []string{"ok", "OK!", " Yes. ", "👍", "+1", "no?", "hm", "Agreed.", "thanks", ""}
	for _, s := range trivial {
		if !isTrivial(s) {
			t.Errorf("expected %q to be trivial", s)
		}
	}

	meaningful := []string{"deploy on friday", "what about the budget?", "日本語のメッセージ"}
	for _, s := range meaningful {
		if isTrivial(s) {
			t.Errorf("expected %q to be meaningful", s)
		}
	}
}

// A set dominated by acknowledgements must never pay for an embedding call.
func TestReduce_FillerOnly_NoEmbedCall(t *testing.T) {
	emb := &mockEmbedder{}
	c := New(emb)

	msgs := make([]domain.Message, 0, 42)
	for i := 0; i < 40; i++ {
		msgs = append(msgs, msgAt(fmt.Sprintf("ack-%d", i), "ok", int64(i)))
	}
	msgs = append(msgs,
		msgAt("real-1", "ship the release on friday", 100),
		msgAt("real-2", "reminder: budget review tomorrow", 101),
	)

	out, err := c.Reduce(context.Background(), msgs, 25, 0.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if emb.calls != 0 {
		t.Errorf("expected no embedding calls, got %d", emb.calls)
	}
	if out[0].ID() != "real-1" || out[1].ID() != "real-2" {
		t.Errorf("unexpected survivors: %s, %s", out[0].ID(), out[1].ID())
	}
}

func TestReduce_UnderTarget_EarlyOut(t *testing.T) {
	emb := &mockEmbedder{}
	c := New(emb)

	msgs := []domain.Message{
		msgAt("a", "first real message", 0),
		msgAt("b", "second real message", 1),
	}

	out, err := c.Reduce(context.Background(), msgs, 10, 0.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if emb.calls != 0 {
		t.Error("under-target set should not be embedded")
	}
}

func TestReduce_CollapsesNearDuplicates(t *testing.T) {
	// Three near-duplicates plus one distinct message; centroid of the
	// duplicate group coincides with "dup-3".
	emb := &mockEmbedder{vecs: map[string][]float32{
		"deploy friday ok?":     {1, 0},
		"deploying on friday":   {0.8, 0.6},
		"deploy on friday then": {0.9, 0.3},
		"lunch at noon anyone?": {0, 1},
	}}
	c := New(emb)

	msgs := []domain.Message{
		msgAt("dup-1", "deploy friday ok?", 0),
		msgAt("dup-2", "deploying on friday", 1),
		msgAt("dup-3", "deploy on friday then", 2),
		msgAt("lunch", "lunch at noon anyone?", 3),
	}

	out, err := c.Reduce(context.Background(), msgs, 1, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// target=1 but the 50% floor holds compression at 2 clusters.
	if len(out) != 2 {
		t.Fatalf("expected 2 representatives, got %d", len(out))
	}
	if out[0].ID() != "dup-3" {
		t.Errorf("representative = %q, expected centroid-closest dup-3", out[0].ID())
	}
	if out[1].ID() != "lunch" {
		t.Errorf("second representative = %q, expected lunch", out[1].ID())
	}
	if emb.calls != 1 {
		t.Errorf("expected 1 batched embedding call, got %d", emb.calls)
	}
}

// The requested cluster count is a hard ceiling on the output, even for
// widely separated vectors under a strict similarity threshold.
func TestReduce_NeverExceedsRequestedClusters(t *testing.T) {
	emb := &mockEmbedder{vecs: map[string][]float32{
		"topic one entirely":   {1, 0, 0},
		"topic two entirely":   {0, 1, 0},
		"topic three entirely": {0, 0, 1},
		"topic four entirely":  {1, 1, 0},
	}}
	c := New(emb)

	msgs := []domain.Message{
		msgAt("a", "topic one entirely", 0),
		msgAt("b", "topic two entirely", 1),
		msgAt("c", "topic three entirely", 2),
		msgAt("d", "topic four entirely", 3),
	}

	// target=1, 4 survivors: the 50% floor asks for 2 clusters.
	out, err := c.Reduce(context.Background(), msgs, 1, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) > 2 {
		t.Fatalf("got %d representatives, cluster count bound is 2", len(out))
	}
	if len(out) != 2 {
		t.Fatalf("expected exactly 2 representatives, got %d", len(out))
	}
	if out[0].ID() != "c" || out[1].ID() != "d" {
		t.Errorf("unexpected representatives: %s, %s", out[0].ID(), out[1].ID())
	}
}

func TestReduce_RepresentativesChronological(t *testing.T) {
	// "late" is distinct and newest; its cluster comes last regardless of
	// cluster discovery order.
	emb := &mockEmbedder{vecs: map[string][]float32{
		"standup at ten":    {0, 1},
		"standup at 10am":   {0.05, 1},
		"release is frozen": {1, 0},
		"freeze the branch": {1, 0.05},
	}}
	c := New(emb)

	msgs := []domain.Message{
		msgAt("r1", "release is frozen", 5),
		msgAt("s1", "standup at ten", 0),
		msgAt("s2", "standup at 10am", 1),
		msgAt("r2", "freeze the branch", 6),
	}

	out, err := c.Reduce(context.Background(), msgs, 2, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 representatives, got %d", len(out))
	}
	if !out[0].CreatedAt().Before(out[1].CreatedAt()) {
		t.Error("representatives are not chronologically ordered")
	}
}

func TestReduce_EmbedError_FailsWhole(t *testing.T) {
	emb := &mockEmbedder{err: errors.New("provider down")}
	c := New(emb)

	msgs := []domain.Message{
		msgAt("a", "first real message", 0),
		msgAt("b", "second real message", 1),
		msgAt("c", "third real message", 2),
	}

	_, err := c.Reduce(context.Background(), msgs, 1, 0.85)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAgglomerate_Partition(t *testing.T) {
	// 0 and 1 are close, 2 is far from both.
	dist := [][]float64{
		{0, 0.1, 0.9},
		{0.1, 0, 0.95},
		{0.9, 0.95, 0},
	}

	groups := agglomerate(dist, 2)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	seen := make(map[int]int)
	for _, g := range groups {
		for _, m := range g {
			seen[m]++
		}
	}
	for i := 0; i < 3; i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appears %d times, expected exactly once", i, seen[i])
		}
	}
}

func TestAgglomerate_MergesDistantPairToRequestedCount(t *testing.T) {
	dist := [][]float64{
		{0, 0.9},
		{0.9, 0},
	}

	groups := agglomerate(dist, 1)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0]) != 2 {
		t.Fatalf("expected both indices merged, got %v", groups[0])
	}
}
