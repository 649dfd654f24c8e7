package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockEmbedder generates embeddings with Titan text embeddings on Bedrock.
type BedrockEmbedder struct {
	client  *bedrockruntime.Client
	modelID string
}

type titanEmbeddingRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbeddingResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func NewBedrockEmbedder(ctx context.Context, region string, modelID string) (*BedrockEmbedder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("Unable to load AWS config: %w", err)
	}

	return &BedrockEmbedder{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

func (e *BedrockEmbedder) GenerateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbeddingRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("Unable to serialize embedding request. Error: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &e.modelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to invoke embedding model. Error: %w", err)
	}

	var response titanEmbeddingResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal embedding response. Error: %w", err)
	}

	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("embedding model returned an empty vector")
	}

	return response.Embedding, nil
}

// GenerateBatchEmbeddings embeds texts one by one. Titan has no batch
// endpoint, the caller gets positional results either way.
func (e *BedrockEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for i, text := range texts {
		embedding, err := e.GenerateEmbeddings(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		embeddings = append(embeddings, embedding)
	}

	return embeddings, nil
}
