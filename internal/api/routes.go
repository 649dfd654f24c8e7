package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/ragbuilder/model-service/internal/middleware"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/index").
			To(handler.Index).
			Doc("Index documents into the chunk and summary indexes").
			Metadata(restfulspec.KeyOpenAPITags, []string{"index"}).
			Reads(IndexRequest{}).
			Writes(IndexResponse{}).
			Returns(200, "OK", IndexResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.DELETE("/index").
			To(handler.Deindex).
			Doc("Delete indexed entries matching a metadata filter").
			Metadata(restfulspec.KeyOpenAPITags, []string{"index"}).
			Reads(DeindexRequest{}).
			Writes(DeindexResponse{}).
			Returns(200, "OK", DeindexResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/query").
			To(handler.Query).
			Doc("Route, retrieve and answer a query").
			Metadata(restfulspec.KeyOpenAPITags, []string{"query"}).
			Reads(QueryRequest{}).
			Writes(QueryResponse{}).
			Returns(200, "OK", QueryResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	// Admin: Clear cache endpoint
	ws.
		Route(ws.POST("/admin/cache/clear").
			To(handler.ClearCache).
			Doc("Clear the query result cache").
			Metadata(restfulspec.KeyOpenAPITags, []string{"admin"}).
			Returns(200, "OK", map[string]string{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}
