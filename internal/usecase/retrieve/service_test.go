package retrieve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/similarity"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

type stubStore struct {
	entries []domain.Entry
}

func (s *stubStore) Snapshot() []domain.Entry {
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
	last  string
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	e.last = text
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vec}, nil
}

func mustEntry(t *testing.T, vec []float32, text string) domain.Entry {
	t.Helper()
	e, err := domain.NewEntry(vec, text, "section")
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

func texts(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text()
	}
	return out
}

func TestRetrieveByVector_EmptyStore(t *testing.T) {
	svc := New(&stubStore{}, &stubEmbedder{}, zap.NewNop())

	got := svc.RetrieveByVector([]float32{1, 0})
	if got == nil {
		t.Fatal("expected non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestRetrieveByVector_CapsAtSix(t *testing.T) {
	const dim = 10
	store := &stubStore{}
	query := make([]float32, dim)
	for i := range dim {
		vec := make([]float32, dim)
		vec[i] = 1
		query[i] = 1
		store.entries = append(store.entries, mustEntry(t, vec, fmt.Sprintf("e%d", i)))
	}

	got := New(store, &stubEmbedder{}, zap.NewNop()).RetrieveByVector(query)
	if len(got) != 6 {
		t.Fatalf("expected 6 results, got %d", len(got))
	}
	// Equal scores keep insertion order.
	want := []string{"e0", "e1", "e2", "e3", "e4", "e5"}
	for i, w := range want {
		if got[i].Text() != w {
			t.Fatalf("results = %v, want prefix %v", texts(got), want)
		}
	}
}

func TestRetrieveByVector_OrdersByScore(t *testing.T) {
	store := &stubStore{entries: []domain.Entry{
		mustEntry(t, []float32{0, 1}, "far"),
		mustEntry(t, []float32{1, 0}, "exact"),
		mustEntry(t, []float32{1, 1}, "middle"),
	}}

	got := New(store, &stubEmbedder{}, zap.NewNop(), WithDiversityThreshold(1)).
		RetrieveByVector([]float32{1, 0})

	want := []string{"exact", "middle", "far"}
	if fmt.Sprint(texts(got)) != fmt.Sprint(want) {
		t.Fatalf("results = %v, want %v", texts(got), want)
	}
}

func TestRetrieveByVector_DropsNearDuplicates(t *testing.T) {
	store := &stubStore{entries: []domain.Entry{
		mustEntry(t, []float32{1, 0}, "a"),
		mustEntry(t, []float32{1, 0.01}, "a-copy"),
		mustEntry(t, []float32{0, 1}, "b"),
	}}

	got := New(store, &stubEmbedder{}, zap.NewNop()).RetrieveByVector([]float32{1, 0.001})

	want := []string{"a", "b"}
	if fmt.Sprint(texts(got)) != fmt.Sprint(want) {
		t.Fatalf("results = %v, want %v", texts(got), want)
	}
}

func TestRetrieveByVector_DiversityThresholdIsInclusive(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{3, 4}
	pair := similarity.Cosine(b, a)

	tests := []struct {
		name      string
		threshold float32
		want      []string
	}{
		{"similarity equal to threshold is kept", pair, []string{"a", "b"}},
		{"similarity above threshold is dropped", math.Nextafter32(pair, 0), []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{entries: []domain.Entry{
				mustEntry(t, b, "b"),
				mustEntry(t, a, "a"),
			}}
			got := New(store, &stubEmbedder{}, zap.NewNop(), WithDiversityThreshold(tt.threshold)).
				RetrieveByVector([]float32{1, 0})
			if fmt.Sprint(texts(got)) != fmt.Sprint(tt.want) {
				t.Fatalf("results = %v, want %v", texts(got), tt.want)
			}
		})
	}
}

func TestRetrieveByVector_RejectedCandidateNotReconsidered(t *testing.T) {
	// b and c sit 30 degrees either side of a (cos 0.866), 60 degrees apart from each other.
	store := &stubStore{entries: []domain.Entry{
		mustEntry(t, []float32{0.866025, 0.5}, "b"),
		mustEntry(t, []float32{0.866025, -0.5}, "c"),
		mustEntry(t, []float32{0, 1}, "d"),
		mustEntry(t, []float32{1, 0}, "a"),
	}}

	got := New(store, &stubEmbedder{}, zap.NewNop()).RetrieveByVector([]float32{1, 0})

	want := []string{"a", "d"}
	if fmt.Sprint(texts(got)) != fmt.Sprint(want) {
		t.Fatalf("results = %v, want %v", texts(got), want)
	}
}

func TestRetrieveByVector_PairwiseDiversity(t *testing.T) {
	store := &stubStore{}
	for i := range 20 {
		vec := []float32{1, float32(i) * 0.05, float32(i%3) * 0.5}
		store.entries = append(store.entries, mustEntry(t, vec, fmt.Sprintf("e%d", i)))
	}

	svc := New(store, &stubEmbedder{}, zap.NewNop())
	got := svc.RetrieveByVector([]float32{1, 0.3, 0.2})

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if sim := similarity.Cosine(got[i].Embedding(), got[j].Embedding()); sim > 0.85 {
				t.Fatalf("%s and %s have similarity %f > 0.85", got[i].Text(), got[j].Text(), sim)
			}
		}
	}
	if len(got) == 0 || len(got) > 6 {
		t.Fatalf("unexpected result count %d", len(got))
	}
}

func TestRetrieveByVector_SkipsDimensionMismatch(t *testing.T) {
	store := &stubStore{entries: []domain.Entry{
		mustEntry(t, []float32{1, 0, 0}, "three"),
		mustEntry(t, []float32{1, 0}, "two"),
	}}
	before := testutil.ToFloat64(metrics.RetrievalDimensionMismatchTotal)

	got := New(store, &stubEmbedder{}, zap.NewNop()).RetrieveByVector([]float32{1, 0})

	if len(got) != 1 || got[0].Text() != "two" {
		t.Fatalf("results = %v, want [two]", texts(got))
	}
	if after := testutil.ToFloat64(metrics.RetrievalDimensionMismatchTotal); after-before != 1 {
		t.Errorf("mismatch counter delta = %v, want 1", after-before)
	}
}

func TestWithTopK(t *testing.T) {
	store := &stubStore{}
	for i := range 4 {
		vec := make([]float32, 4)
		vec[i] = 1
		store.entries = append(store.entries, mustEntry(t, vec, fmt.Sprintf("e%d", i)))
	}

	got := New(store, &stubEmbedder{}, zap.NewNop(), WithTopK(2)).RetrieveByVector([]float32{1, 1, 1, 1})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestRetrieve_ReturnsTexts(t *testing.T) {
	store := &stubStore{entries: []domain.Entry{
		mustEntry(t, []float32{1, 0}, "alpha"),
		mustEntry(t, []float32{0, 1}, "beta"),
	}}
	emb := &stubEmbedder{vec: []float32{0, 1}}

	got, err := New(store, emb, zap.NewNop()).Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"beta", "alpha"}) {
		t.Fatalf("got %v", got)
	}
	if emb.last != "question" {
		t.Errorf("embedder received %q", emb.last)
	}
}

func TestRetrieve_PropagatesEmbeddingError(t *testing.T) {
	emb := &stubEmbedder{err: fmt.Errorf("timeout: %w", domain.ErrEmbeddingProviderError)}
	store := &stubStore{entries: []domain.Entry{mustEntry(t, []float32{1}, "x")}}

	_, err := New(store, emb, zap.NewNop()).Retrieve(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestRetrieveEntries_EmptyStoreStillEmbeds(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1}}

	got, err := New(&stubStore{}, emb, zap.NewNop()).RetrieveEntries(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
	if emb.calls != 1 {
		t.Errorf("expected one embedding call, got %d", emb.calls)
	}
}
