package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/ragbuilder/model-service/internal/document"
)

// Reranker reorders retrieval results by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []document.RetrievalResult) []document.RetrievalResult
}

// LexicalReranker blends the similarity score with query-term overlap.
// Deterministic and model-free, so retrieval quality degrades gracefully
// when no reranking model is configured.
type LexicalReranker struct {
	// OverlapWeight is the share of the final score taken from term overlap,
	// the rest comes from the original similarity score.
	OverlapWeight float64
}

func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{
		OverlapWeight: 0.5,
	}
}

func (r *LexicalReranker) Rerank(_ context.Context, query string, results []document.RetrievalResult) []document.RetrievalResult {
	terms := tokenize(query)
	if len(terms) == 0 || len(results) == 0 {
		return results
	}

	reranked := make([]document.RetrievalResult, len(results))
	copy(reranked, results)

	for i := range reranked {
		overlap := overlapFraction(terms, tokenize(reranked[i].Content))
		reranked[i].Score = (1-r.OverlapWeight)*reranked[i].Score + r.OverlapWeight*overlap
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	return reranked
}

func overlapFraction(queryTerms []string, contentTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	content := make(map[string]struct{}, len(contentTerms))
	for _, term := range contentTerms {
		content[term] = struct{}{}
	}
	matched := 0
	for _, term := range queryTerms {
		if _, ok := content[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		term := strings.Trim(field, `.,;:!?"'()[]`)
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
