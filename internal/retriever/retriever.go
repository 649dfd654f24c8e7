package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/embedding"
	"github.com/ragbuilder/model-service/internal/router"
	"github.com/ragbuilder/model-service/internal/vectorstore"
	"github.com/rs/zerolog/log"
)

const DefaultTopK = 5

// HybridRetriever executes the retrieval strategy chosen by the router
// against the chunk and summary indexes.
type HybridRetriever struct {
	embedder     embedding.Embedder
	chunkIndex   vectorstore.VectorIndex
	summaryIndex vectorstore.VectorIndex
}

func NewHybridRetriever(
	embedder embedding.Embedder,
	chunkIndex vectorstore.VectorIndex,
	summaryIndex vectorstore.VectorIndex,
) *HybridRetriever {
	return &HybridRetriever{
		embedder:     embedder,
		chunkIndex:   chunkIndex,
		summaryIndex: summaryIndex,
	}
}

// Retrieve embeds the query once and searches one or both indexes according
// to the decision. Zero hits is a valid outcome, not an error. In hybrid
// mode a single failed sub-search degrades to the other side's results.
func (h *HybridRetriever) Retrieve(
	ctx context.Context,
	query string,
	namespace string,
	filter document.Filter,
	decision router.Decision,
	topK int,
) ([]document.RetrievalResult, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := h.embedder.GenerateEmbeddings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Unable to generate embeddings. Error: %w", err)
	}

	switch decision {
	case router.DecisionChunk:
		hits, err := h.chunkIndex.Search(ctx, namespace, vector, filter, topK)
		if err != nil {
			return nil, fmt.Errorf("chunk search failed: %w", err)
		}
		return toResults(hits, document.SourceChunk), nil

	case router.DecisionSummary:
		hits, err := h.summaryIndex.Search(ctx, namespace, vector, filter, topK)
		if err != nil {
			return nil, fmt.Errorf("summary search failed: %w", err)
		}
		return toResults(hits, document.SourceSummary), nil

	case router.DecisionHybrid:
		return h.retrieveHybrid(ctx, namespace, vector, filter, topK)
	}

	return nil, fmt.Errorf("unknown retrieval decision %q", decision)
}

func (h *HybridRetriever) retrieveHybrid(
	ctx context.Context,
	namespace string,
	vector []float32,
	filter document.Filter,
	topK int,
) ([]document.RetrievalResult, error) {
	var (
		wg          sync.WaitGroup
		chunkHits   []vectorstore.SearchHit
		summaryHits []vectorstore.SearchHit
		chunkErr    error
		summaryErr  error
	)

	// The two sub-searches have no data dependency; the merge below is the
	// synchronization point.
	wg.Add(2)
	go func() {
		defer wg.Done()
		chunkHits, chunkErr = h.chunkIndex.Search(ctx, namespace, vector, filter, topK)
	}()
	go func() {
		defer wg.Done()
		summaryHits, summaryErr = h.summaryIndex.Search(ctx, namespace, vector, filter, topK)
	}()
	wg.Wait()

	if chunkErr != nil && summaryErr != nil {
		return nil, fmt.Errorf("hybrid retrieval failed on both indexes: chunk: %v, summary: %v", chunkErr, summaryErr)
	}
	if chunkErr != nil {
		log.Warn().Err(chunkErr).Msg("Chunk search failed, returning summary results only")
		chunkHits = nil
	}
	if summaryErr != nil {
		log.Warn().Err(summaryErr).Msg("Summary search failed, returning chunk results only")
		summaryHits = nil
	}

	return mergeResults(
		toResults(chunkHits, document.SourceChunk),
		toResults(summaryHits, document.SourceSummary),
		topK,
	), nil
}

// mergeResults concatenates chunk results before summary results, sorts by
// descending score (stable, so equal scores keep chunk-before-summary
// order), deduplicates by (source documents, content) keeping the
// higher-scoring entry, and truncates to topK. A chunk and its document's
// summary with different contents are different evidence and both survive.
func mergeResults(chunkResults, summaryResults []document.RetrievalResult, topK int) []document.RetrievalResult {
	combined := make([]document.RetrievalResult, 0, len(chunkResults)+len(summaryResults))
	combined = append(combined, chunkResults...)
	combined = append(combined, summaryResults...)

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})

	seen := make(map[string]struct{}, len(combined))
	merged := make([]document.RetrievalResult, 0, len(combined))
	for _, result := range combined {
		key := dedupeKey(result)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, result)
	}

	if topK < len(merged) {
		merged = merged[:topK]
	}
	return merged
}

func dedupeKey(result document.RetrievalResult) string {
	return strings.Join(result.SourceDocumentIDs, ",") + "\x00" + strings.TrimSpace(result.Content)
}

func toResults(hits []vectorstore.SearchHit, kind document.SourceKind) []document.RetrievalResult {
	results := make([]document.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, document.RetrievalResult{
			Content:           hit.Content,
			Metadata:          hit.Metadata,
			Score:             hit.Score,
			SourceKind:        kind,
			SourceDocumentIDs: sourceIDs(hit.Metadata),
		})
	}
	return results
}

func sourceIDs(metadata map[string]any) []string {
	raw, ok := metadata[document.MetaSourceDoc]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}
