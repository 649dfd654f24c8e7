package model

import (
	"context"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/index"
	"github.com/ragbuilder/model-service/internal/llm"
	"github.com/ragbuilder/model-service/internal/rerank"
	"github.com/ragbuilder/model-service/internal/retriever"
	"github.com/ragbuilder/model-service/internal/router"
)

const InstanceRAGRerankV1 = "RAG-rerank-v1"

// RAGRerankV1 is DefaultRAG plus a reranking pass between retrieval and
// generation.
type RAGRerankV1 struct {
	manager    *index.Manager
	router     *router.Router
	retriever  *retriever.HybridRetriever
	completion llm.Client
	reranker   rerank.Reranker
	topK       int
	maxTokens  int
}

func NewRAGRerankV1(
	manager *index.Manager,
	rt *router.Router,
	hr *retriever.HybridRetriever,
	completion llm.Client,
	reranker rerank.Reranker,
	topK int,
	maxTokens int,
) *RAGRerankV1 {
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &RAGRerankV1{
		manager:    manager,
		router:     rt,
		retriever:  hr,
		completion: completion,
		reranker:   reranker,
		topK:       topK,
		maxTokens:  maxTokens,
	}
}

func (m *RAGRerankV1) InstanceID() string {
	return InstanceRAGRerankV1
}

func (m *RAGRerankV1) Index(ctx context.Context, docs []document.Document, opts IndexOptions) error {
	return m.manager.Index(ctx, docs, opts.Namespace, index.Options{Metadata: opts.Metadata})
}

func (m *RAGRerankV1) Deindex(ctx context.Context, filter document.Filter, namespace string) error {
	return m.manager.Deindex(ctx, filter, namespace)
}

func (m *RAGRerankV1) Invoke(ctx context.Context, inputData string, opts InvokeOptions) (*Response, error) {
	return invoke(ctx, m, inputData, opts, m.reranker.Rerank)
}

func (m *RAGRerankV1) deps() (*router.Router, *retriever.HybridRetriever, llm.Client, int, int) {
	return m.router, m.retriever, m.completion, m.topK, m.maxTokens
}
