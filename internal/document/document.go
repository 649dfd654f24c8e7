package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Metadata keys every document must carry. Namespacing and project scoping
// depend on them being present at index time.
const (
	MetaUserID     = "user_id"
	MetaProjectID  = "project_id"
	MetaChunkIndex = "chunk_index"
	MetaSourceDoc  = "source_document_id"
)

// Document is the logical unit handed to the index manager. Identity is
// derived from content + metadata, never from index internals.
type Document struct {
	Content  string
	Metadata map[string]any
}

// ID returns a stable identity hash over content and metadata. Indexing the
// same document twice produces the same id, which makes upserts idempotent.
func (d Document) ID() string {
	h := sha256.New()
	h.Write([]byte(d.Content))
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "\x00%s=%v", k, d.Metadata[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (d Document) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("document content is empty")
	}
	for _, key := range []string{MetaUserID, MetaProjectID} {
		if _, ok := d.Metadata[key]; !ok {
			return fmt.Errorf("document metadata is missing required key %q", key)
		}
	}
	return nil
}

// Chunk is a fine-grained segment of a document. It inherits the document
// metadata plus its position.
type Chunk struct {
	ID               string
	SourceDocumentID string
	Index            int
	Content          string
	Metadata         map[string]any
}

// ChunkID derives the chunk identity from the owning document and position.
func ChunkID(docID string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:chunk:%d", docID, index)))
	return hex.EncodeToString(sum[:])
}

// Summary is the condensed representation of one or more documents.
type Summary struct {
	ID                string
	SourceDocumentIDs []string
	Content           string
	Metadata          map[string]any
}

// SummaryID derives the summary identity from its source documents.
func SummaryID(docIDs []string) string {
	sorted := append([]string(nil), docIDs...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte("summary:" + strings.Join(sorted, ",")))
	return hex.EncodeToString(sum[:])
}

// Filter is a conjunctive exact-match predicate over metadata.
type Filter map[string]any

// SourceKind tags which index a retrieval result came from.
type SourceKind string

const (
	SourceChunk   SourceKind = "chunk"
	SourceSummary SourceKind = "summary"
)

// RetrievalResult is a single ranked hit. Higher score means more relevant.
type RetrievalResult struct {
	Content           string
	Metadata          map[string]any
	Score             float64
	SourceKind        SourceKind
	SourceDocumentIDs []string
}

// CloneMetadata copies a metadata map so derived chunks and summaries never
// alias the document's map.
func CloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeMetadata applies extra on top of base without mutating either.
func MergeMetadata(base, extra map[string]any) map[string]any {
	out := CloneMetadata(base)
	for k, v := range extra {
		out[k] = v
	}
	return out
}
