// Package memvec is an in-process vector store used for local development
// and tests. It speaks the same contract as the Pinecone and Qdrant stores.
package memvec

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

type entry struct {
	values   []float32
	norm     float64
	metadata map[string]any
}

type Store struct {
	mu         sync.RWMutex
	dimension  int
	namespaces map[string]map[string]entry
}

var _ pinecone.VectorStore = (*Store)(nil)

func New() *Store {
	return &Store{namespaces: map[string]map[string]entry{}}
}

func (s *Store) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("%w: index has dimension %d, embeddings have %d", pinecone.ErrDimensionMismatch, s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("vector id is required")
		}
		if err := s.checkDimensionLocked(len(v.Values)); err != nil {
			return fmt.Errorf("vector %q: %w", v.ID, err)
		}
	}
	ns := s.namespaces[namespace]
	if ns == nil {
		ns = map[string]entry{}
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		if s.dimension == 0 {
			s.dimension = len(v.Values)
		}
		ns[v.ID] = entry{
			values:   append([]float32(nil), v.Values...),
			norm:     norm(v.Values),
			metadata: cloneMetadata(v.Metadata),
		}
	}
	return nil
}

func (s *Store) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if err := pinecone.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkDimensionLocked(len(q)); err != nil {
		return nil, err
	}
	qn := norm(q)
	out := make([]pinecone.VectorMatch, 0, topK)
	for id, e := range s.namespaces[namespace] {
		if !matches(e.metadata, filter) {
			continue
		}
		out = append(out, pinecone.VectorMatch{
			ID:       id,
			Score:    cosine(q, qn, e.values, e.norm),
			Metadata: cloneMetadata(e.metadata),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *Store) QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error) {
	matches, err := s.QueryMatches(ctx, namespace, q, topK, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (s *Store) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

// Len reports how many vectors a namespace holds.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func (s *Store) checkDimensionLocked(n int) error {
	if s.dimension > 0 && n != s.dimension {
		return fmt.Errorf("%w: expected=%d got=%d", pinecone.ErrDimensionMismatch, s.dimension, n)
	}
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}

func cloneMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
