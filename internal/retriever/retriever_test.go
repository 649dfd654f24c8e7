package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/router"
	"github.com/ragbuilder/model-service/internal/vectorstore"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec, err := f.GenerateEmbeddings(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// fakeIndex returns canned hits or a canned error and records calls.
type fakeIndex struct {
	hits  []vectorstore.SearchHit
	err   error
	calls int
}

func (f *fakeIndex) Upsert(_ context.Context, _ string, _ []vectorstore.Entry) error {
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ []float32, _ document.Filter, topK int) ([]vectorstore.SearchHit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) Delete(_ context.Context, _ string, _ document.Filter) error {
	return nil
}

func hit(id, content, sourceDoc string, score float64) vectorstore.SearchHit {
	return vectorstore.SearchHit{
		ID:      id,
		Score:   score,
		Content: content,
		Metadata: map[string]any{
			document.MetaSourceDoc: sourceDoc,
		},
	}
}

func TestRetrieve_RequiresNamespace(t *testing.T) {
	h := NewHybridRetriever(&fakeEmbedder{}, &fakeIndex{}, &fakeIndex{})

	_, err := h.Retrieve(context.Background(), "query", "", nil, router.DecisionChunk, 5)
	if err == nil {
		t.Fatal("Expected error for empty namespace")
	}
}

func TestRetrieve_ChunkOnly(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("c1", "passage", "doc-1", 0.9)}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "summary", "doc-1", 0.8)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionChunk, 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].SourceKind != document.SourceChunk {
		t.Errorf("Expected chunk source kind, got %s", results[0].SourceKind)
	}
	if summaryIdx.calls != 0 {
		t.Errorf("Expected summary index untouched, got %d calls", summaryIdx.calls)
	}
	if got := results[0].SourceDocumentIDs; len(got) != 1 || got[0] != "doc-1" {
		t.Errorf("Expected source ids [doc-1], got %v", got)
	}
}

func TestRetrieve_SummaryOnly(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("c1", "passage", "doc-1", 0.9)}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "summary", "doc-1", 0.8)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionSummary, 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 || results[0].SourceKind != document.SourceSummary {
		t.Fatalf("Expected 1 summary result, got %+v", results)
	}
	if chunkIdx.calls != 0 {
		t.Errorf("Expected chunk index untouched, got %d calls", chunkIdx.calls)
	}
}

func TestRetrieve_EmptyResultsIsNotAnError(t *testing.T) {
	h := NewHybridRetriever(&fakeEmbedder{}, &fakeIndex{}, &fakeIndex{})

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 5)
	if err != nil {
		t.Fatalf("Expected no error for zero hits, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
}

func TestRetrieve_UnknownDecision(t *testing.T) {
	h := NewHybridRetriever(&fakeEmbedder{}, &fakeIndex{}, &fakeIndex{})

	_, err := h.Retrieve(context.Background(), "query", "ns", nil, router.Decision("keyword"), 5)
	if err == nil {
		t.Fatal("Expected error for unknown decision")
	}
}

func TestRetrieveHybrid_MergesSortedByScore(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{
		hit("c1", "chunk one", "doc-1", 0.7),
		hit("c2", "chunk two", "doc-2", 0.5),
	}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{
		hit("s1", "summary one", "doc-1", 0.9),
		hit("s2", "summary two", "doc-3", 0.6),
	}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	wantContents := []string{"summary one", "chunk one", "summary two", "chunk two"}
	if len(results) != len(wantContents) {
		t.Fatalf("Expected %d results, got %d", len(wantContents), len(results))
	}
	for i, want := range wantContents {
		if results[i].Content != want {
			t.Errorf("result %d: expected %q, got %q", i, want, results[i].Content)
		}
	}
}

func TestRetrieveHybrid_EqualScoreChunkFirst(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("c1", "chunk text", "doc-1", 0.8)}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "summary text", "doc-2", 0.8)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].SourceKind != document.SourceChunk {
		t.Errorf("Expected chunk before summary on equal score, got %s first", results[0].SourceKind)
	}
}

func TestRetrieveHybrid_DedupeKeepsHigherScore(t *testing.T) {
	// Same source document, same content, different scores.
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("c1", "shared text", "doc-1", 0.6)}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "shared text", "doc-1", 0.9)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected duplicates collapsed to 1 result, got %d", len(results))
	}
	if results[0].Score != 0.9 {
		t.Errorf("Expected higher-scoring duplicate to win, got score %f", results[0].Score)
	}
}

func TestRetrieveHybrid_SameDocDifferentContentBothSurvive(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("c1", "clause 4.2 says...", "doc-1", 0.8)}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "overview of the contract", "doc-1", 0.7)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected both distinct contents to survive, got %d results", len(results))
	}
}

func TestRetrieveHybrid_TruncatesToTopK(t *testing.T) {
	chunkIdx := &fakeIndex{hits: []vectorstore.SearchHit{
		hit("c1", "one", "d1", 0.9),
		hit("c2", "two", "d2", 0.8),
	}}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{
		hit("s1", "three", "d3", 0.7),
		hit("s2", "four", "d4", 0.6),
	}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected topK=3 results, got %d", len(results))
	}
}

func TestRetrieveHybrid_DegradesOnSingleFailure(t *testing.T) {
	chunkIdx := &fakeIndex{err: errors.New("chunk index down")}
	summaryIdx := &fakeIndex{hits: []vectorstore.SearchHit{hit("s1", "summary", "doc-1", 0.8)}}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	results, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 5)
	if err != nil {
		t.Fatalf("Expected degraded results, got error %v", err)
	}
	if len(results) != 1 || results[0].SourceKind != document.SourceSummary {
		t.Fatalf("Expected summary-only results, got %+v", results)
	}
}

func TestRetrieveHybrid_BothFailuresError(t *testing.T) {
	chunkIdx := &fakeIndex{err: errors.New("chunk index down")}
	summaryIdx := &fakeIndex{err: errors.New("summary index down")}
	h := NewHybridRetriever(&fakeEmbedder{}, chunkIdx, summaryIdx)

	_, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionHybrid, 5)
	if err == nil {
		t.Fatal("Expected error when both sub-searches fail")
	}
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	h := NewHybridRetriever(&fakeEmbedder{err: errors.New("no model")}, &fakeIndex{}, &fakeIndex{})

	_, err := h.Retrieve(context.Background(), "query", "ns", nil, router.DecisionChunk, 5)
	if err == nil {
		t.Fatal("Expected error when embedding fails")
	}
}

func TestMergeResults_Deterministic(t *testing.T) {
	chunks := []document.RetrievalResult{
		{Content: "a", Score: 0.5, SourceKind: document.SourceChunk, SourceDocumentIDs: []string{"d1"}},
		{Content: "b", Score: 0.5, SourceKind: document.SourceChunk, SourceDocumentIDs: []string{"d2"}},
	}
	summaries := []document.RetrievalResult{
		{Content: "c", Score: 0.5, SourceKind: document.SourceSummary, SourceDocumentIDs: []string{"d3"}},
	}

	first := mergeResults(chunks, summaries, 10)
	for i := 0; i < 10; i++ {
		again := mergeResults(chunks, summaries, 10)
		for j := range first {
			if first[j].Content != again[j].Content {
				t.Fatalf("Merge order changed between runs at position %d", j)
			}
		}
	}
}
