package setup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ragbuilder/model-service/internal/cache"
	"github.com/ragbuilder/model-service/internal/chunker"
	"github.com/ragbuilder/model-service/internal/config"
	"github.com/ragbuilder/model-service/internal/embedding"
	"github.com/ragbuilder/model-service/internal/index"
	"github.com/ragbuilder/model-service/internal/llm/bedrock"
	"github.com/ragbuilder/model-service/internal/model"
	"github.com/ragbuilder/model-service/internal/rerank"
	"github.com/ragbuilder/model-service/internal/retriever"
	"github.com/ragbuilder/model-service/internal/router"
	"github.com/ragbuilder/model-service/internal/summarizer"
	"github.com/ragbuilder/model-service/internal/vectorstore/pgvector"
	"github.com/rs/zerolog/log"
)

// Dependencies is everything a cmd needs after wiring.
type Dependencies struct {
	Model      model.Model
	QueryCache *cache.QueryCache
	Pool       *pgxpool.Pool
}

func (d *Dependencies) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// Wire builds the full dependency graph for the configured model variant:
// bedrock clients, pgvector-backed chunk and summary indexes, index
// manager, router, hybrid retriever, and the optional redis query cache.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	modelsCfg, err := config.LoadModelsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}
	params, err := modelsCfg.Params(cfg.ModelInstanceID)
	if err != nil {
		return nil, err
	}

	claudeClient, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	embedder, err := embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.EmbedModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	pool, err := pgvector.NewPool(ctx, pgvector.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, err
	}

	chunkIndex, err := pgvector.NewStore(pool, "chunk_entries", cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	summaryIndex, err := pgvector.NewStore(pool, "summary_entries", cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	if err := chunkIndex.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := summaryIndex.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	manager := index.NewManager(
		chunker.New(params.ChunkSize, params.ChunkOverlap),
		summarizer.NewLLMSummarizer(claudeClient),
		embedder,
		chunkIndex,
		summaryIndex,
	)
	rt := router.NewRouter(claudeClient)
	hr := retriever.NewHybridRetriever(embedder, chunkIndex, summaryIndex)

	m, err := model.New(cfg.ModelInstanceID, model.Dependencies{
		Manager:    manager,
		Router:     rt,
		Retriever:  hr,
		Completion: claudeClient,
		Reranker:   rerank.NewLexicalReranker(),
	}, model.Params{
		TopK:      params.TopK,
		MaxTokens: params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var queryCache *cache.QueryCache
	if cfg.CacheEnabled {
		redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			// The cache is an optimization; the service runs without it.
			log.Warn().Err(err).Msg("Redis unavailable, running without query cache")
		} else {
			queryCache = cache.NewQueryCache(redisClient, cfg.RedisTTL)
		}
	}

	log.Info().
		Str("instance_id", m.InstanceID()).
		Str("region", cfg.AWSRegion).
		Bool("cache", queryCache != nil).
		Msg("Model wired")

	return &Dependencies{
		Model:      m,
		QueryCache: queryCache,
		Pool:       pool,
	}, nil
}
