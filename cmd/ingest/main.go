package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/ragbuilder/model-service/internal/config"
	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/model"
	"github.com/ragbuilder/model-service/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	filePath := flag.String("file", "", "Path to the text document to index")
	namespace := flag.String("namespace", "", "Tenant namespace to index into")
	userID := flag.String("user", "", "Owning user id")
	projectID := flag.String("project", "", "Owning project id")

	deindexCommand := flag.Bool("deindex", false, "Remove entries matching -user and -project instead of indexing")

	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Unable to load env variables")
	}

	if *namespace == "" || *userID == "" || *projectID == "" {
		log.Fatal().Msg("-namespace, -user and -project are required")
	}

	ctx := context.Background()
	cfg := config.Load()

	deps, err := setup.Wire(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to initialize service")
	}
	defer deps.Close()

	if *deindexCommand {
		filter := document.Filter{
			document.MetaUserID:    *userID,
			document.MetaProjectID: *projectID,
		}
		if err := deps.Model.Deindex(ctx, filter, *namespace); err != nil {
			log.Fatal().Err(err).Msg("Deindex failed")
		}
		log.Info().Str("namespace", *namespace).Msg("Deindex successful")
		return
	}

	if *filePath == "" {
		log.Fatal().Msg("-file is required")
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Unable to read document")
	}

	doc := document.Document{
		Content: string(content),
		Metadata: map[string]any{
			document.MetaUserID:    *userID,
			document.MetaProjectID: *projectID,
		},
	}

	if err := deps.Model.Index(ctx, []document.Document{doc}, model.IndexOptions{
		Namespace: *namespace,
	}); err != nil {
		log.Fatal().Err(err).Msg("Indexing failed")
	}

	log.Info().
		Str("namespace", *namespace).
		Str("document_id", doc.ID()).
		Msg("Indexing successful")
}
