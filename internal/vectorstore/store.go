package vectorstore

import (
	"context"

	"github.com/ragbuilder/model-service/internal/document"
)

// Entry is one vector plus its payload, keyed by a caller-supplied id.
// Upserting the same id replaces the stored entry.
type Entry struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]any
}

// SearchHit is one similarity match, score in [0,1], higher is better.
type SearchHit struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]any
}

// VectorIndex stores vectors with metadata. Every operation is scoped to a
// namespace; results never leak across namespaces. Filters are conjunctive
// exact-match predicates over metadata.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, entries []Entry) error
	Search(ctx context.Context, namespace string, vector []float32, filter document.Filter, topK int) ([]SearchHit, error)
	Delete(ctx context.Context, namespace string, filter document.Filter) error
}
