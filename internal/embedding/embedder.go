package embedding

import "context"

// Embedder converts text into vectors. Implementations must return vectors
// of a fixed dimension for the lifetime of an index.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, text string) ([]float32, error)
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
