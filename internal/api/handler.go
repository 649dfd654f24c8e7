package api

import (
	"encoding/json"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/ragbuilder/model-service/internal/cache"
	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/middleware"
	"github.com/ragbuilder/model-service/internal/model"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	model      model.Model
	queryCache *cache.QueryCache
}

// NewHandler binds a model variant to the REST surface. queryCache may be
// nil, queries then always hit the indexes.
func NewHandler(m model.Model, queryCache *cache.QueryCache) *Handler {
	return &Handler{
		model:      m,
		queryCache: queryCache,
	}
}

// Index handles POST /api/v1/index
func (h *Handler) Index(req *restful.Request, resp *restful.Response) {
	var indexRequest IndexRequest

	if err := req.ReadEntity(&indexRequest); err != nil {
		log.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if err := indexRequest.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	docs := make([]document.Document, 0, len(indexRequest.Documents))
	for _, payload := range indexRequest.Documents {
		docs = append(docs, document.Document{
			Content:  payload.Content,
			Metadata: payload.Metadata,
		})
	}

	log.Info().
		Str("namespace", indexRequest.Namespace).
		Int("documents", len(docs)).
		Msg("Process Index")

	ctx := req.Request.Context()

	err := h.model.Index(ctx, docs, model.IndexOptions{
		Namespace: indexRequest.Namespace,
		Metadata:  indexRequest.Metadata,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to index documents")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, IndexResponse{
		Status:    "indexed",
		Documents: len(docs),
	})
}

// Query handles POST /api/v1/query
func (h *Handler) Query(req *restful.Request, resp *restful.Response) {
	var queryRequest QueryRequest

	if err := req.ReadEntity(&queryRequest); err != nil {
		log.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	queryRequest.SetDefaults()
	if err := queryRequest.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	log.Info().
		Str("request_id", requestID).
		Str("namespace", queryRequest.Namespace).
		Int("top_k", queryRequest.TopK).
		Msg("Process Query")

	ctx := req.Request.Context()

	cacheKey := cache.Key(queryRequest.Namespace, queryRequest.Query, queryRequest.Filters)
	if h.queryCache != nil {
		if payload, ok := h.queryCache.Get(ctx, cacheKey); ok {
			var cached QueryResponse
			if err := json.Unmarshal(payload, &cached); err == nil {
				cached.RequestID = requestID
				cached.Cached = true
				resp.WriteHeaderAndEntity(http.StatusOK, cached)
				return
			}
			log.Warn().Str("key", cacheKey).Msg("Discarding undecodable cache entry")
		}
	}

	trace := map[string]string{"request_id": requestID}
	if queryRequest.UserID != "" {
		trace["user_id"] = queryRequest.UserID
	}

	response, err := h.model.Invoke(ctx, queryRequest.Query, model.InvokeOptions{
		Namespace:       queryRequest.Namespace,
		Filters:         queryRequest.Filters,
		TopK:            queryRequest.TopK,
		ReturnDocuments: queryRequest.ReturnDocuments,
		TraceMetadata:   trace,
	})
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to invoke model")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	queryResponse := QueryResponse{
		RequestID:  requestID,
		InstanceID: response.InstanceID,
		Decision:   string(response.Decision),
		Content:    response.Content,
		Documents:  toResultPayloads(response.Documents),
	}

	if h.queryCache != nil {
		h.queryCache.Set(ctx, cacheKey, queryResponse)
	}

	resp.WriteHeaderAndEntity(http.StatusOK, queryResponse)
}

// Deindex handles DELETE /api/v1/index
func (h *Handler) Deindex(req *restful.Request, resp *restful.Response) {
	var deindexRequest DeindexRequest

	if err := req.ReadEntity(&deindexRequest); err != nil {
		log.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if err := deindexRequest.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	ctx := req.Request.Context()

	err := h.model.Deindex(ctx, document.Filter(deindexRequest.Filter), deindexRequest.Namespace)
	if err != nil {
		// Partial failures carry which index is still inconsistent; the
		// caller can safely re-run the same deindex.
		log.Error().Err(err).Str("namespace", deindexRequest.Namespace).Msg("Failed to deindex")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, DeindexResponse{Status: "deindexed"})
}

// Health handles GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{Status: "ok"})
}

// ClearCache handles POST /api/v1/admin/cache/clear
func (h *Handler) ClearCache(req *restful.Request, resp *restful.Response) {
	if h.queryCache == nil {
		resp.WriteHeaderAndEntity(http.StatusOK, map[string]string{"status": "cache disabled"})
		return
	}
	if err := h.queryCache.Clear(req.Request.Context()); err != nil {
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, map[string]string{"status": "cleared"})
}
