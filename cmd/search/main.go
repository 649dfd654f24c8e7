package main

import (
	"context"
	"flag"
	"fmt"
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

	query := flag.String("query", "", "Query text")
	namespace := flag.String("namespace", "", "Tenant namespace to search")
	userID := flag.String("user", "", "Filter results to this user id")
	projectID := flag.String("project", "", "Filter results to this project id")
	topK := flag.Int("k", 0, "Number of results to retrieve (0 uses the model default)")
	documentsOnly := flag.Bool("documents-only", false, "Return retrieved documents without generating an answer")

	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	if *query == "" || *namespace == "" {
		log.Fatal().Msg("-query and -namespace are required")
	}

	ctx := context.Background()
	cfg := config.Load()

	deps, err := setup.Wire(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to initialize service")
	}
	defer deps.Close()

	filters := document.Filter{}
	if *userID != "" {
		filters[document.MetaUserID] = *userID
	}
	if *projectID != "" {
		filters[document.MetaProjectID] = *projectID
	}

	response, err := deps.Model.Invoke(ctx, *query, model.InvokeOptions{
		Namespace:       *namespace,
		Filters:         filters,
		TopK:            *topK,
		ReturnDocuments: *documentsOnly,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Query failed")
	}

	log.Info().
		Str("instance_id", response.InstanceID).
		Str("decision", string(response.Decision)).
		Int("documents", len(response.Documents)).
		Msg("Query answered")

	if *documentsOnly {
		for i, doc := range response.Documents {
			fmt.Fprintf(os.Stdout, "[%d] (%s, %.3f) %s\n", i+1, doc.SourceKind, doc.Score, doc.Content)
		}
		return
	}

	fmt.Fprintln(os.Stdout, response.Content)
}
