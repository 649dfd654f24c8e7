package summarizer

import (
	"context"
	"strings"
	"testing"
)

func TestFrequencySummarize_SelectsTopSentences(t *testing.T) {
	s := NewFrequencySummarizer(2)
	text := "The payment system processes payment requests. " +
		"Payment validation happens before settlement. " +
		"The office cafeteria serves lunch at noon. " +
		"Settlement of payment batches runs nightly."

	summary, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	sentences := strings.Count(summary, ".")
	if sentences != 2 {
		t.Errorf("Expected 2 sentences, got %d: %q", sentences, summary)
	}
	if strings.Contains(summary, "cafeteria") {
		t.Errorf("Expected off-topic sentence dropped, got %q", summary)
	}
}

func TestFrequencySummarize_PreservesOriginalOrder(t *testing.T) {
	s := NewFrequencySummarizer(3)
	text := "Alpha systems boot first. Beta systems boot second. Gamma systems boot third."

	summary, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	alpha := strings.Index(summary, "Alpha")
	beta := strings.Index(summary, "Beta")
	gamma := strings.Index(summary, "Gamma")
	if alpha < 0 || beta < 0 || gamma < 0 {
		t.Fatalf("Expected all sentences kept, got %q", summary)
	}
	if !(alpha < beta && beta < gamma) {
		t.Errorf("Expected original sentence order, got %q", summary)
	}
}

func TestFrequencySummarize_NoSentenceBoundaries(t *testing.T) {
	s := NewFrequencySummarizer(2)

	summary, err := s.Summarize(context.Background(), "  fragment without punctuation  ")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "fragment without punctuation" {
		t.Errorf("Expected trimmed input back, got %q", summary)
	}
}

func TestFrequencySummarize_Deterministic(t *testing.T) {
	s := NewFrequencySummarizer(2)
	text := "One fact here. Another fact there. A third fact elsewhere. Facts everywhere."

	first, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := s.Summarize(context.Background(), text)
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		if again != first {
			t.Fatalf("Expected deterministic output, got %q then %q", first, again)
		}
	}
}
