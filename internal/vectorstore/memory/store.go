package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ragbuilder/model-service/internal/document"
	"github.com/ragbuilder/model-service/internal/vectorstore"
)

type stored struct {
	entry vectorstore.Entry
	order int
}

// Store is an in-memory VectorIndex using brute-force cosine similarity.
// Used by tests and local runs without Postgres.
type Store struct {
	mu      sync.RWMutex
	entries map[string]map[string]stored // namespace -> id -> entry
	counter int
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]map[string]stored),
	}
}

func (s *Store) Upsert(_ context.Context, namespace string, entries []vectorstore.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.entries[namespace]
	if !ok {
		ns = make(map[string]stored)
		s.entries[namespace] = ns
	}

	for _, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("entry id is empty")
		}
		order := s.counter
		if prev, exists := ns[entry.ID]; exists {
			// Replacing an entry keeps its insertion order stable.
			order = prev.order
		} else {
			s.counter++
		}
		ns[entry.ID] = stored{entry: entry, order: order}
	}

	return nil
}

func (s *Store) Search(_ context.Context, namespace string, vector []float32, filter document.Filter, topK int) ([]vectorstore.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		return nil, nil
	}

	candidates := []stored{}
	for _, item := range s.entries[namespace] {
		if matchesFilter(item.entry.Metadata, filter) {
			candidates = append(candidates, item)
		}
	}

	// Sort by insertion order first so equal-score results are deterministic.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].order < candidates[j].order })

	hits := make([]vectorstore.SearchHit, 0, len(candidates))
	for _, item := range candidates {
		hits = append(hits, vectorstore.SearchHit{
			ID:       item.entry.ID,
			Score:    cosine(vector, item.entry.Vector),
			Content:  item.entry.Content,
			Metadata: item.entry.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) Delete(_ context.Context, namespace string, filter document.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.entries[namespace]
	for id, item := range ns {
		if matchesFilter(item.entry.Metadata, filter) {
			delete(ns, id)
		}
	}
	return nil
}

// Len reports how many entries a namespace holds. Test helper.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[namespace])
}

func matchesFilter(metadata map[string]any, filter document.Filter) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
