package summarizer

import (
	"context"
	"fmt"

	"github.com/ragbuilder/model-service/internal/llm"
)

// Summarizer produces a condensed representative text for a document.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

const summarizePrompt = `Write a concise summary (about 300 words) of the following:

"%s"

CONCISE SUMMARY:`

// LLMSummarizer asks the model for a concise abstractive summary.
type LLMSummarizer struct {
	client    llm.Client
	maxTokens int
}

func NewLLMSummarizer(client llm.Client) *LLMSummarizer {
	return &LLMSummarizer{
		client:    client,
		maxTokens: 600,
	}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	response, err := s.client.InvokeModelWithRetry(ctx, llm.Request{
		Prompt:      fmt.Sprintf(summarizePrompt, text),
		MaxTokens:   s.maxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		return "", fmt.Errorf("summarization call failed: %w", err)
	}
	if response.Content == "" {
		return "", fmt.Errorf("summarization returned empty content")
	}
	return response.Content, nil
}
