package model

import (
	"fmt"
	"strings"

	"github.com/ragbuilder/model-service/internal/document"
)

func buildPromptWithContext(query string, results []document.RetrievalResult) string {
	docsSection := ""
	if len(results) > 0 {
		var db strings.Builder
		db.WriteString("Relevant documents:\n<context>\n")
		for i, r := range results {
			db.WriteString(fmt.Sprintf("[%d] (%s, relevance: %.2f)\n%s\n\n", i+1, r.SourceKind, r.Score, r.Content))
		}
		db.WriteString("</context>\n\n")
		docsSection = db.String()
	}

	return fmt.Sprintf(`You are a helpful document assistant.

%sCurrent question: %s

Provide a clear, accurate answer based on the information provided. If the context does not contain the answer, say so.`,
		docsSection, query)
}
