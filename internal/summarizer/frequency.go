package summarizer

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// FrequencySummarizer is an extractive fallback that ranks sentences by word
// frequency. It needs no model access, which makes it the summarizer of
// choice for local runs and tests.
type FrequencySummarizer struct {
	MaxSentences int

	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	stopwords       map[string]struct{}
}

func NewFrequencySummarizer(maxSentences int) *FrequencySummarizer {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return &FrequencySummarizer{
		MaxSentences:    maxSentences,
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:'\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:       defaultStopwords(),
	}
}

func (s *FrequencySummarizer) Summarize(_ context.Context, text string) (string, error) {
	sentences := s.sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}

	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		total := 0.0
		toks := s.tokens(sent)
		for _, tok := range toks {
			total += freq[tok]
		}
		// Normalize by sentence length to avoid favoring long sentences.
		if l := float64(len(toks)); l > 0 {
			total /= math.Sqrt(l)
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	keep := s.MaxSentences
	if keep > len(scores) {
		keep = len(scores)
	}
	selected := make([]int, keep)
	for i := 0; i < keep; i++ {
		selected[i] = scores[i].idx
	}
	// Keep original order among the selected sentences.
	sort.Ints(selected)

	out := make([]string, 0, keep)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "than", "so", "such", "into",
		"about", "between", "through", "during", "before", "after", "can",
		"will", "just", "not", "no", "very", "too", "own", "same", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
