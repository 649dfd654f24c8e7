package model

import (
	"context"
	"fmt"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/index"
	"github.com/ragbuilder/model-service/internal/llm"
	"github.com/ragbuilder/model-service/internal/retriever"
	"github.com/ragbuilder/model-service/internal/router"
	"github.com/rs/zerolog/log"
)

const InstanceDefaultRAG = "RAG-default-v1"

// DefaultRAG routes the query, retrieves from one or both indexes, and
// passes the assembled context to the completion model. No reranking.
type DefaultRAG struct {
	manager    *index.Manager
	router     *router.Router
	retriever  *retriever.HybridRetriever
	completion llm.Client
	topK       int
	maxTokens  int
}

func NewDefaultRAG(
	manager *index.Manager,
	rt *router.Router,
	hr *retriever.HybridRetriever,
	completion llm.Client,
	topK int,
	maxTokens int,
) *DefaultRAG {
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &DefaultRAG{
		manager:    manager,
		router:     rt,
		retriever:  hr,
		completion: completion,
		topK:       topK,
		maxTokens:  maxTokens,
	}
}

func (m *DefaultRAG) InstanceID() string {
	return InstanceDefaultRAG
}

func (m *DefaultRAG) Index(ctx context.Context, docs []document.Document, opts IndexOptions) error {
	return m.manager.Index(ctx, docs, opts.Namespace, index.Options{Metadata: opts.Metadata})
}

func (m *DefaultRAG) Deindex(ctx context.Context, filter document.Filter, namespace string) error {
	return m.manager.Deindex(ctx, filter, namespace)
}

func (m *DefaultRAG) Invoke(ctx context.Context, inputData string, opts InvokeOptions) (*Response, error) {
	return invoke(ctx, m, inputData, opts, nil)
}

func (m *DefaultRAG) deps() (*router.Router, *retriever.HybridRetriever, llm.Client, int, int) {
	return m.router, m.retriever, m.completion, m.topK, m.maxTokens
}

// invoke is the shared route -> retrieve -> (rerank) -> complete pipeline.
// postprocess may reorder the retrieved results; nil skips the step.
func invoke(
	ctx context.Context,
	m interface {
		InstanceID() string
		deps() (*router.Router, *retriever.HybridRetriever, llm.Client, int, int)
	},
	inputData string,
	opts InvokeOptions,
	postprocess func(ctx context.Context, query string, results []document.RetrievalResult) []document.RetrievalResult,
) (*Response, error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	rt, hr, completion, topK, maxTokens := m.deps()
	if opts.TopK > 0 {
		topK = opts.TopK
	}

	decision := rt.Route(ctx, inputData)

	results, err := hr.Retrieve(ctx, inputData, opts.Namespace, opts.Filters, decision, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	if postprocess != nil {
		results = postprocess(ctx, inputData, results)
	}

	log.Info().
		Str("instance_id", m.InstanceID()).
		Str("namespace", opts.Namespace).
		Str("decision", string(decision)).
		Int("results", len(results)).
		Fields(map[string]any{"trace": opts.TraceMetadata}).
		Msg("Retrieval complete")

	response := &Response{
		InstanceID: m.InstanceID(),
		Decision:   decision,
		Documents:  results,
	}

	if opts.ReturnDocuments {
		return response, nil
	}

	completionResponse, err := completion.InvokeModelWithRetry(ctx, llm.Request{
		Prompt:      buildPromptWithContext(inputData, results),
		MaxTokens:   maxTokens,
		Temperature: 0.0,
		Trace:       opts.TraceMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	response.Content = completionResponse.Content
	return response, nil
}
