package model

import (
	"fmt"

	"github.com/ragbuilder/model-service/internal/index"
	"github.com/ragbuilder/model-service/internal/llm"
	"github.com/ragbuilder/model-service/internal/rerank"
	"github.com/ragbuilder/model-service/internal/retriever"
	"github.com/ragbuilder/model-service/internal/router"
)

// Dependencies are the shared primitives every variant composes.
type Dependencies struct {
	Manager    *index.Manager
	Router     *router.Router
	Retriever  *retriever.HybridRetriever
	Completion llm.Client
	Reranker   rerank.Reranker
}

// Params are the per-variant knobs loaded from configs/models.yaml.
type Params struct {
	TopK      int
	MaxTokens int
}

// New selects a variant by instance id. Unknown ids are an error rather
// than a silent default.
func New(instanceID string, deps Dependencies, params Params) (Model, error) {
	switch instanceID {
	case InstanceDefaultRAG:
		return NewDefaultRAG(deps.Manager, deps.Router, deps.Retriever, deps.Completion, params.TopK, params.MaxTokens), nil
	case InstanceRAGRerankV1:
		if deps.Reranker == nil {
			return nil, fmt.Errorf("model %s requires a reranker", instanceID)
		}
		return NewRAGRerankV1(deps.Manager, deps.Router, deps.Retriever, deps.Completion, deps.Reranker, params.TopK, params.MaxTokens), nil
	}
	return nil, fmt.Errorf("model %s not found", instanceID)
}
