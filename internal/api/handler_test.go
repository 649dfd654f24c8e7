package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/ragbuilder/model-service/internal/api"
	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/model"
	"github.com/ragbuilder/model-service/internal/router"
)

// mockModel records calls and returns canned responses.
type mockModel struct {
	indexedDocs   []document.Document
	indexOpts     model.IndexOptions
	invokeOpts    model.InvokeOptions
	deindexFilter document.Filter
	deindexNS     string
	invokeErr     error
}

func (m *mockModel) InstanceID() string { return "RAG-default-v1" }

func (m *mockModel) Index(_ context.Context, docs []document.Document, opts model.IndexOptions) error {
	m.indexedDocs = docs
	m.indexOpts = opts
	return nil
}

func (m *mockModel) Invoke(_ context.Context, inputData string, opts model.InvokeOptions) (*model.Response, error) {
	m.invokeOpts = opts
	if m.invokeErr != nil {
		return nil, m.invokeErr
	}
	return &model.Response{
		InstanceID: m.InstanceID(),
		Decision:   router.DecisionChunk,
		Content:    "the answer",
		Documents: []document.RetrievalResult{
			{Content: "evidence", Score: 0.9, SourceKind: document.SourceChunk},
		},
	}, nil
}

func (m *mockModel) Deindex(_ context.Context, filter document.Filter, namespace string) error {
	m.deindexFilter = filter
	m.deindexNS = namespace
	return nil
}

func setupTestAPI(m model.Model) *restful.Container {
	container := restful.NewContainer()
	api.RegisterRoutes(container, api.NewHandler(m, nil))
	return container
}

func postJSON(t *testing.T, container *restful.Container, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)
	return recorder
}

func TestAPI_Health(t *testing.T) {
	container := setupTestAPI(&mockModel{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}

	var response api.HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
}

func TestAPI_Index(t *testing.T) {
	m := &mockModel{}
	container := setupTestAPI(m)

	recorder := postJSON(t, container, "/api/v1/index", api.IndexRequest{
		Namespace: "ns",
		Documents: []api.DocumentPayload{
			{Content: "doc body", Metadata: map[string]any{"user_id": "u1", "project_id": "p1"}},
		},
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	if len(m.indexedDocs) != 1 {
		t.Fatalf("Expected 1 document passed to the model, got %d", len(m.indexedDocs))
	}
	if m.indexOpts.Namespace != "ns" {
		t.Errorf("Expected namespace 'ns', got %q", m.indexOpts.Namespace)
	}

	var response api.IndexResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "indexed" || response.Documents != 1 {
		t.Errorf("Unexpected response: %+v", response)
	}
}

func TestAPI_Index_MissingNamespace(t *testing.T) {
	container := setupTestAPI(&mockModel{})

	recorder := postJSON(t, container, "/api/v1/index", api.IndexRequest{
		Documents: []api.DocumentPayload{{Content: "doc body"}},
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}

func TestAPI_Query(t *testing.T) {
	m := &mockModel{}
	container := setupTestAPI(m)

	recorder := postJSON(t, container, "/api/v1/query", api.QueryRequest{
		Namespace: "ns",
		Query:     "when was it signed?",
		Filters:   map[string]any{"project_id": "p1"},
		UserID:    "u1",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}

	var response api.QueryResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Content != "the answer" {
		t.Errorf("Expected generated content, got %q", response.Content)
	}
	if response.Decision != "chunk" {
		t.Errorf("Expected decision 'chunk', got %q", response.Decision)
	}
	if response.RequestID == "" {
		t.Error("Expected a request id")
	}

	// Defaults and trace plumbing reach the model.
	if m.invokeOpts.TopK != 5 {
		t.Errorf("Expected default top_k=5, got %d", m.invokeOpts.TopK)
	}
	if m.invokeOpts.TraceMetadata["user_id"] != "u1" {
		t.Errorf("Expected user_id in trace metadata, got %v", m.invokeOpts.TraceMetadata)
	}
	if m.invokeOpts.Filters["project_id"] != "p1" {
		t.Errorf("Expected filters forwarded, got %v", m.invokeOpts.Filters)
	}
}

func TestAPI_Query_MissingQuery(t *testing.T) {
	container := setupTestAPI(&mockModel{})

	recorder := postJSON(t, container, "/api/v1/query", api.QueryRequest{Namespace: "ns"})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}

func TestAPI_Query_ModelError(t *testing.T) {
	container := setupTestAPI(&mockModel{invokeErr: errors.New("retrieval failed")})

	recorder := postJSON(t, container, "/api/v1/query", api.QueryRequest{
		Namespace: "ns",
		Query:     "query",
	})

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", recorder.Code)
	}
}

func TestAPI_Deindex(t *testing.T) {
	m := &mockModel{}
	container := setupTestAPI(m)

	body, _ := json.Marshal(api.DeindexRequest{
		Namespace: "ns",
		Filter:    map[string]any{"project_id": "p1"},
	})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/index", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	if m.deindexNS != "ns" {
		t.Errorf("Expected namespace 'ns', got %q", m.deindexNS)
	}
	if m.deindexFilter["project_id"] != "p1" {
		t.Errorf("Expected filter forwarded, got %v", m.deindexFilter)
	}
}

func TestAPI_Deindex_EmptyFilter(t *testing.T) {
	container := setupTestAPI(&mockModel{})

	body, _ := json.Marshal(api.DeindexRequest{Namespace: "ns"})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/index", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}
