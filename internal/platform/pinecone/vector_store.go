package pinecone

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// upsertBatchSize keeps each request well under Pinecone's 2 MB limit with
// 768-dim vectors and chunk text in metadata.
const upsertBatchSize = 100

var (
	// ErrDimensionMismatch marks a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrUnsupportedFilter marks a metadata filter the backend cannot express.
	ErrUnsupportedFilter = errors.New("unsupported metadata filter")
)

// VectorStore is the backend-neutral vector index contract. Qdrant and the
// in-memory store implement it too.
type VectorStore interface {
	// EnsureIndex creates the backing index if it does not exist. Idempotent.
	EnsureIndex(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// QueryMatches returns matches with their similarity scores (higher is better) and metadata.
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

type StoreConfig struct {
	IndexName       string
	IndexHost       string
	NamespacePrefix string
	Cloud           string
	Region          string
	Metric          string
	ReadyTimeout    time.Duration
}

type vectorStore struct {
	log *logger.Logger
	pc  Client
	cfg StoreConfig

	mu        sync.RWMutex
	indexHost string
	dimension int
}

func NewVectorStore(log *logger.Logger, pc Client, cfg StoreConfig) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	cfg.IndexName = strings.TrimSpace(cfg.IndexName)
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Minute
	}
	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		cfg:       cfg,
		indexHost: strings.TrimSpace(cfg.IndexHost),
	}, nil
}

func (s *vectorStore) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	desc, err := s.pc.DescribeIndex(ctx, s.cfg.IndexName)
	switch {
	case err == nil:
		if desc.Dimension != 0 && desc.Dimension != dimension {
			return fmt.Errorf("%w: index %q has dimension %d, embeddings have %d",
				ErrDimensionMismatch, s.cfg.IndexName, desc.Dimension, dimension)
		}
	case IsNotFound(err):
		req := CreateIndexRequest{Name: s.cfg.IndexName, Dimension: dimension, Metric: s.cfg.Metric}
		req.Spec.Serverless = ServerlessSpec{Cloud: s.cfg.Cloud, Region: s.cfg.Region}
		s.log.Info("Creating pinecone index",
			"index_name", s.cfg.IndexName,
			"dimension", dimension,
			"metric", s.cfg.Metric,
			"region", s.cfg.Region,
		)
		if _, err := s.pc.CreateIndex(ctx, req); err != nil && !IsConflict(err) {
			return fmt.Errorf("pinecone create_index failed: %w", err)
		}
		desc, err = s.waitReady(ctx)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("pinecone describe_index failed: %w", err)
	}

	s.mu.Lock()
	s.dimension = dimension
	if s.indexHost == "" {
		s.indexHost = strings.TrimSpace(desc.Host)
	}
	s.mu.Unlock()
	return nil
}

func (s *vectorStore) waitReady(ctx context.Context) (*IndexDescription, error) {
	deadline := time.Now().Add(s.cfg.ReadyTimeout)
	delay := 500 * time.Millisecond
	for {
		desc, err := s.pc.DescribeIndex(ctx, s.cfg.IndexName)
		if err != nil && !IsNotFound(err) {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		if err == nil && desc.Status.Ready && strings.TrimSpace(desc.Host) != "" {
			return desc, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("pinecone index %q not ready after %s", s.cfg.IndexName, s.cfg.ReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 5*time.Second {
			delay *= 2
		}
	}
}

func (s *vectorStore) host(ctx context.Context) (string, error) {
	s.mu.RLock()
	host := s.indexHost
	s.mu.RUnlock()
	if host != "" {
		return host, nil
	}
	desc, err := s.pc.DescribeIndex(ctx, s.cfg.IndexName)
	if err != nil {
		return "", fmt.Errorf("pinecone describe_index failed: %w", err)
	}
	host = strings.TrimSpace(desc.Host)
	if host == "" {
		return "", fmt.Errorf("pinecone describe_index returned empty host")
	}
	s.log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index", "index_name", s.cfg.IndexName, "index_host", host)
	s.mu.Lock()
	s.indexHost = host
	if s.dimension == 0 {
		s.dimension = desc.Dimension
	}
	s.mu.Unlock()
	return host, nil
}

func (s *vectorStore) checkDimension(n int) error {
	s.mu.RLock()
	dim := s.dimension
	s.mu.RUnlock()
	if dim > 0 && n != dim {
		return fmt.Errorf("%w: expected=%d got=%d", ErrDimensionMismatch, dim, n)
	}
	return nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	host, err := s.host(ctx)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("vector id is required")
		}
		if err := s.checkDimension(len(v.Values)); err != nil {
			return fmt.Errorf("vector %q: %w", v.ID, err)
		}
	}
	ns := s.qualifyNamespace(namespace)
	for batch := range slices.Chunk(vectors, upsertBatchSize) {
		if _, err := s.pc.UpsertVectors(ctx, host, UpsertRequest{Namespace: ns, Vectors: batch}); err != nil {
			return err
		}
	}
	return nil
}

// QueryIDs skips metadata, which lets topK go up to 10000 instead of 1000.
func (s *vectorStore) QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error) {
	matches, err := s.query(ctx, namespace, q, topK, filter, false)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out, nil
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error) {
	return s.query(ctx, namespace, q, topK, filter, true)
}

func (s *vectorStore) query(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any, withMetadata bool) ([]VectorMatch, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if err := s.checkDimension(len(q)); err != nil {
		return nil, err
	}
	if err := ValidateFilter(filter); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}
	host, err := s.host(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.pc.Query(ctx, host, QueryRequest{
		Namespace:       s.qualifyNamespace(namespace),
		Vector:          q,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: withMetadata,
	})
	if err != nil {
		return nil, err
	}
	out := make([]VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	host, err := s.host(ctx)
	if err != nil {
		return err
	}
	_, err = s.pc.DeleteVectors(ctx, host, DeleteRequest{
		Namespace: s.qualifyNamespace(namespace),
		IDs:       ids,
	})
	return err
}

func (s *vectorStore) qualifyNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	prefix := strings.TrimSpace(s.cfg.NamespacePrefix)
	switch {
	case prefix == "":
		return ns
	case ns == "":
		return prefix
	default:
		return prefix + ":" + ns
	}
}
