package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/vectorstore"
)

var tablePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store is a VectorIndex backed by Postgres with the pgvector extension.
// One Store per logical index (chunk entries, summary entries), each with
// its own table.
type Store struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

func NewStore(pool *pgxpool.Pool, table string, dimension int) (*Store, error) {
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}
	return &Store{
		pool:      pool,
		table:     table,
		dimension: dimension,
	}, nil
}

// EnsureSchema creates the backing table and extension if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to ensure pgvector extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT NOT NULL,
			namespace  TEXT NOT NULL,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}',
			embedding  VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		)`, s.table, s.dimension)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}

	indexQuery := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_metadata_idx ON %s USING gin (metadata)`,
		s.table, s.table)
	if _, err := s.pool.Exec(ctx, indexQuery); err != nil {
		return fmt.Errorf("failed to create metadata index on %s: %w", s.table, err)
	}

	return nil
}

func (s *Store) Upsert(ctx context.Context, namespace string, entries []vectorstore.Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, namespace, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (namespace, id)
		DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
		s.table)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, entry := range entries {
		metadataJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for entry %d: %w", i, err)
		}

		_, err = tx.Exec(ctx, query,
			entry.ID,
			namespace,
			entry.Content,
			metadataJSON,
			pgv.NewVector(entry.Vector),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert entry %d into %s: %w", i, s.table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert transaction: %w", err)
	}

	return nil
}

func (s *Store) Search(ctx context.Context, namespace string, vector []float32, filter document.Filter, topK int) ([]vectorstore.SearchHit, error) {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search filter: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT
		  id,
		  content,
		  metadata,
		  embedding <=> $1 AS distance
		FROM %s
		WHERE namespace = $2 AND metadata @> $3
		ORDER BY distance ASC
		LIMIT $4`, s.table)

	rows, err := s.pool.Query(ctx, query, pgv.NewVector(vector), namespace, filterJSON, topK)
	if err != nil {
		return nil, fmt.Errorf("Unable to query the database: %w", err)
	}
	defer rows.Close()

	var hits []vectorstore.SearchHit
	for rows.Next() {
		var (
			hit      vectorstore.SearchHit
			distance float64
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &hit.Metadata, &distance); err != nil {
			return nil, fmt.Errorf("Failed to scan row: %w", err)
		}
		hit.Score = DistanceToScore(distance)
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return hits, nil
}

func (s *Store) Delete(ctx context.Context, namespace string, filter document.Filter) error {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("failed to marshal delete filter: %w", err)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND metadata @> $2`, s.table)

	if _, err := s.pool.Exec(ctx, query, namespace, filterJSON); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}

	return nil
}

// DistanceToScore converts cosine distance (0 identical, 2 opposite) to a
// similarity score clamped to [0, 1].
func DistanceToScore(distance float64) float64 {
	score := 1.0 - distance
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
