package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragbuilder/model-service/internal/llm"
	"github.com/rs/zerolog/log"
)

// Decision is the retrieval strategy chosen for a query. Exactly one of the
// three values; a classification failure never escapes the router.
type Decision string

const (
	DecisionChunk   Decision = "chunk"
	DecisionSummary Decision = "summary"
	DecisionHybrid  Decision = "hybrid"
)

// Router classifies a query into a retrieval strategy using an LLM
// classifier. It inspects only the query text, never the corpus, so the
// decision is cheap and repeatable for the same query string.
type Router struct {
	client llm.Client
}

func NewRouter(client llm.Client) *Router {
	return &Router{
		client: client,
	}
}

// Route returns the strategy for a query. Chunk retrieval is the safe
// default: it always returns usable evidence, so any classification failure
// (call error, malformed or unknown token) falls back to it.
func (r *Router) Route(ctx context.Context, query string) Decision {
	response, err := r.client.InvokeModel(ctx, llm.Request{
		Prompt:      buildClassificationPrompt(query),
		MaxTokens:   10,
		Temperature: 0.0,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Classification call failed, defaulting to chunk retrieval")
		return DecisionChunk
	}

	decision, ok := ParseDecision(response.Content)
	if !ok {
		log.Warn().
			Str("response", response.Content).
			Msg("Classifier returned an unknown token, defaulting to chunk retrieval")
		return DecisionChunk
	}

	return decision
}

// ParseDecision normalizes a classifier response (trim, lowercase) and maps
// it onto a Decision.
func ParseDecision(raw string) (Decision, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Trim(normalized, `."'`)

	switch Decision(normalized) {
	case DecisionChunk:
		return DecisionChunk, true
	case DecisionSummary:
		return DecisionSummary, true
	case DecisionHybrid:
		return DecisionHybrid, true
	}
	return "", false
}

func buildClassificationPrompt(query string) string {
	return fmt.Sprintf(`You are a retrieval strategy classifier for a document assistant.

The assistant can search two indexes:
- chunk: fine-grained passages, best for specific facts, quotes, and details
- summary: document-level summaries, best for overviews, themes, and "what is this about" questions
- hybrid: both indexes, best when the question needs details and broad context

Examples:
Query: "What year was the contract signed?" -> chunk
Query: "Give me an overview of the quarterly report" -> summary
Query: "Summarize the main risks and quote the relevant clauses" -> hybrid

Current Query: "%s"

Respond with EXACTLY one word: chunk, summary, or hybrid.`, query)
}
