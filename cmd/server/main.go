package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/joho/godotenv"
	"github.com/ragbuilder/model-service/internal/api"
	"github.com/ragbuilder/model-service/internal/config"
	"github.com/ragbuilder/model-service/internal/middleware"
	"github.com/ragbuilder/model-service/internal/setup"
	"github.com/ragbuilder/model-service/internal/setup/logger"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Model Service API",
			Description: "Retrieval-augmented generation with routed chunk, summary and hybrid search",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "index", Description: "Document indexing"}},
		{TagProps: spec.TagProps{Name: "query", Description: "Query operations"}},
		{TagProps: spec.TagProps{Name: "admin", Description: "Administrative operations"}},
	}
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("Starting Model Service API Server")

	if err := godotenv.Load(); err != nil {
		log.Error().Msg("No .env file found")
	}

	cfg := config.Load()
	log.Logger = logger.New(cfg.LogLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx := context.Background()
	deps, err := setup.Wire(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to initialize service")
	}
	defer deps.Close()

	handler := api.NewHandler(deps.Model, deps.QueryCache)

	container := restful.NewContainer()

	// Add filters
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)

	// register API
	api.RegisterRoutes(container, handler)

	swaggerConfig := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/api/v1/openapi.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}

	container.Add(restfulspec.NewOpenAPIService(swaggerConfig))

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("address", addr).Msg("Starting server")

	server := http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
