package api

import (
	"fmt"

	"github.com/ragbuilder/model-service/internal/document"
)

type DocumentPayload struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type IndexRequest struct {
	Namespace string            `json:"namespace"`
	Documents []DocumentPayload `json:"documents"`
	// Metadata is applied to every document in the request.
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (r *IndexRequest) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(r.Documents) == 0 {
		return fmt.Errorf("documents are required")
	}
	for i, doc := range r.Documents {
		if doc.Content == "" {
			return fmt.Errorf("document %d has empty content", i)
		}
	}
	return nil
}

type IndexResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

type QueryRequest struct {
	Namespace       string         `json:"namespace"`
	Query           string         `json:"query"`
	Filters         map[string]any `json:"filters,omitempty"`
	TopK            int            `json:"top_k,omitempty"`
	ReturnDocuments bool           `json:"return_documents,omitempty"`
	// UserID is forwarded as trace metadata, it does not affect retrieval.
	UserID string `json:"user_id,omitempty"`
}

func (r *QueryRequest) SetDefaults() {
	if r.TopK <= 0 {
		r.TopK = 5
	}
}

func (r *QueryRequest) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if r.Query == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}

type ResultPayload struct {
	Content           string         `json:"content"`
	Metadata          map[string]any `json:"metadata"`
	Score             float64        `json:"score"`
	SourceKind        string         `json:"source_kind"`
	SourceDocumentIDs []string       `json:"source_document_ids,omitempty"`
}

type QueryResponse struct {
	RequestID  string          `json:"request_id"`
	InstanceID string          `json:"instance_id"`
	Decision   string          `json:"decision"`
	Content    string          `json:"content,omitempty"`
	Documents  []ResultPayload `json:"documents"`
	Cached     bool            `json:"cached,omitempty"`
}

type DeindexRequest struct {
	Namespace string         `json:"namespace"`
	Filter    map[string]any `json:"filter"`
}

func (r *DeindexRequest) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(r.Filter) == 0 {
		return fmt.Errorf("filter is required")
	}
	return nil
}

type DeindexResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func toResultPayloads(results []document.RetrievalResult) []ResultPayload {
	payloads := make([]ResultPayload, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, ResultPayload{
			Content:           r.Content,
			Metadata:          r.Metadata,
			Score:             r.Score,
			SourceKind:        string(r.SourceKind),
			SourceDocumentIDs: r.SourceDocumentIDs,
		})
	}
	return payloads
}
