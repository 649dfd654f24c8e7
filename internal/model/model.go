package model

import (
	"context"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/router"
)

// Model is the contract every RAG variant implements. Variants compose the
// same index manager, router and retriever, and differ only in
// post-processing of the retrieved results.
type Model interface {
	// InstanceID identifies the variant, e.g. "RAG-default-v1".
	InstanceID() string
	Index(ctx context.Context, docs []document.Document, opts IndexOptions) error
	Invoke(ctx context.Context, inputData string, opts InvokeOptions) (*Response, error)
	Deindex(ctx context.Context, filter document.Filter, namespace string) error
}

// IndexOptions scopes an Index call.
type IndexOptions struct {
	// Namespace is required; all entries are indexed under it.
	Namespace string
	// Metadata is merged into every document before indexing.
	Metadata map[string]any
}

// InvokeOptions scopes an Invoke call. Recognized fields are enumerated
// here instead of open-ended keyword dispatch.
type InvokeOptions struct {
	// Namespace is required; searches never cross it.
	Namespace string
	// Filters narrows retrieval with conjunctive exact-match predicates.
	Filters document.Filter
	// TopK caps the retrieved result count. Zero means the variant default.
	TopK int
	// ReturnDocuments skips generation and returns the retrieved documents.
	ReturnDocuments bool
	// TraceMetadata is forwarded opaquely to the completion capability for
	// observability. It never alters retrieval.
	TraceMetadata map[string]string
}

// Response is the outcome of an Invoke call.
type Response struct {
	InstanceID string
	Decision   router.Decision
	// Content is the generated answer, empty when ReturnDocuments is set.
	Content   string
	Documents []document.RetrievalResult
}
