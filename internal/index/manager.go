package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ragbuilder/model-service/internal/chunker"
	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/embedding"
	"github.com/ragbuilder/model-service/internal/summarizer"
	"github.com/ragbuilder/model-service/internal/vectorstore"
	"github.com/rs/zerolog/log"
)

// Manager owns the indexing lifecycle. It keeps the chunk index and the
// summary index synchronized to the same logical document set: every indexed
// document has its chunks in the chunk index and exactly one summary in the
// summary index, and deindexing removes both.
type Manager struct {
	chunker      *chunker.Chunker
	summarizer   summarizer.Summarizer
	embedder     embedding.Embedder
	chunkIndex   vectorstore.VectorIndex
	summaryIndex vectorstore.VectorIndex
}

// Options alters a single Index call.
type Options struct {
	// Metadata is merged into every document before indexing.
	Metadata map[string]any
}

func NewManager(
	chunker *chunker.Chunker,
	summarizer summarizer.Summarizer,
	embedder embedding.Embedder,
	chunkIndex vectorstore.VectorIndex,
	summaryIndex vectorstore.VectorIndex,
) *Manager {
	return &Manager{
		chunker:      chunker,
		summarizer:   summarizer,
		embedder:     embedder,
		chunkIndex:   chunkIndex,
		summaryIndex: summaryIndex,
	}
}

// Index chunks, summarizes, embeds and upserts every document, scoped to
// namespace. Documents are independent, so they are processed concurrently.
// Upserts are keyed on content-hash ids: re-indexing the same document
// replaces its entries instead of duplicating them.
func (m *Manager) Index(ctx context.Context, docs []document.Document, namespace string, opts Options) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}

	errs := make(chan error, len(docs))
	var wg sync.WaitGroup

	for _, doc := range docs {
		if opts.Metadata != nil {
			doc.Metadata = document.MergeMetadata(doc.Metadata, opts.Metadata)
		}

		wg.Add(1)
		go func(doc document.Document) {
			defer wg.Done()
			if err := m.indexOne(ctx, doc, namespace); err != nil {
				errs <- err
			}
		}(doc)
	}

	wg.Wait()
	close(errs)

	var collected []error
	for err := range errs {
		collected = append(collected, err)
	}
	return errors.Join(collected...)
}

func (m *Manager) indexOne(ctx context.Context, doc document.Document, namespace string) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	docID := doc.ID()

	chunks := m.chunker.Split(doc)
	if len(chunks) == 0 {
		return fmt.Errorf("document %s produced no chunks", docID)
	}

	summaryText, err := m.summarizer.Summarize(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to summarize document %s: %w", docID, err)
	}

	texts := make([]string, 0, len(chunks)+1)
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}
	texts = append(texts, summaryText)

	embeddings, err := m.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", docID, err)
	}

	chunkEntries := make([]vectorstore.Entry, len(chunks))
	for i, chunk := range chunks {
		chunkEntries[i] = vectorstore.Entry{
			ID:       chunk.ID,
			Vector:   embeddings[i],
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
		}
	}

	summaryMetadata := document.CloneMetadata(doc.Metadata)
	summaryMetadata[document.MetaSourceDoc] = docID
	summaryEntry := vectorstore.Entry{
		ID:       document.SummaryID([]string{docID}),
		Vector:   embeddings[len(chunks)],
		Content:  summaryText,
		Metadata: summaryMetadata,
	}

	if err := m.chunkIndex.Upsert(ctx, namespace, chunkEntries); err != nil {
		return fmt.Errorf("failed to upsert chunks for document %s: %w", docID, err)
	}
	if err := m.summaryIndex.Upsert(ctx, namespace, []vectorstore.Entry{summaryEntry}); err != nil {
		return fmt.Errorf("failed to upsert summary for document %s: %w", docID, err)
	}

	log.Info().
		Str("doc_id", docID).
		Str("namespace", namespace).
		Int("chunks", len(chunks)).
		Msg("Document indexed")

	return nil
}

// Deindex deletes all chunks and summaries matching the filter from both
// indexes. There is no cross-index transaction, so this runs as a saga:
// delete from each index with one compensating retry, and if a side still
// fails, report which index remains inconsistent instead of hiding it.
func (m *Manager) Deindex(ctx context.Context, filter document.Filter, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(filter) == 0 {
		return fmt.Errorf("deindex filter is empty")
	}

	chunkErr := m.deleteWithRetry(ctx, m.chunkIndex, namespace, filter, "chunk")
	summaryErr := m.deleteWithRetry(ctx, m.summaryIndex, namespace, filter, "summary")

	switch {
	case chunkErr != nil && summaryErr != nil:
		return errors.Join(
			&PartialDeindexError{Index: "chunk", Err: chunkErr},
			&PartialDeindexError{Index: "summary", Err: summaryErr},
		)
	case chunkErr != nil:
		return &PartialDeindexError{Index: "chunk", Err: chunkErr}
	case summaryErr != nil:
		return &PartialDeindexError{Index: "summary", Err: summaryErr}
	}

	log.Info().
		Str("namespace", namespace).
		Interface("filter", filter).
		Msg("Deindex complete")

	return nil
}

func (m *Manager) deleteWithRetry(ctx context.Context, idx vectorstore.VectorIndex, namespace string, filter document.Filter, name string) error {
	err := idx.Delete(ctx, namespace, filter)
	if err == nil {
		return nil
	}

	log.Warn().Err(err).Str("index", name).Msg("Delete failed, retrying once")

	if err := idx.Delete(ctx, namespace, filter); err != nil {
		return err
	}
	return nil
}
