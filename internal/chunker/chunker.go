package chunker

import (
	"strings"

	"github.com/ragbuilder/model-service/internal/document"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 50
)

type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	}
}

// Split cuts a document into overlapping chunks. Each chunk inherits the
// document metadata plus its position and owning document id.
func (c *Chunker) Split(doc document.Document) []document.Chunk {
	docID := doc.ID()
	text := Clean(doc.Content)

	results := []document.Chunk{}
	n := len(text)
	i := 0
	chunkIndex := 0

	for i < n {
		end := i + c.ChunkSize
		if end > n {
			end = n
		}

		metadata := document.CloneMetadata(doc.Metadata)
		metadata[document.MetaChunkIndex] = chunkIndex
		metadata[document.MetaSourceDoc] = docID

		results = append(results, document.Chunk{
			ID:               document.ChunkID(docID, chunkIndex),
			SourceDocumentID: docID,
			Index:            chunkIndex,
			Content:          text[i:end],
			Metadata:         metadata,
		})

		i = i + c.ChunkSize - c.ChunkOverlap
		chunkIndex++
	}

	return results
}

// Clean collapses newlines into spaces before chunking so chunk boundaries
// never split on formatting artifacts.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
