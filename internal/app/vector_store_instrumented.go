package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

// instrumentedVectorStore records a metric sample and a span per call.
type instrumentedVectorStore struct {
	provider string
	inner    pinecone.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner pinecone.VectorStore, metrics *observability.Metrics) pinecone.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{provider: provider, inner: inner, metrics: metrics}
}

func (s *instrumentedVectorStore) EnsureIndex(ctx context.Context, dimension int) error {
	return s.run(ctx, "ensure_index", "", func(ctx context.Context) error {
		return s.inner.EnsureIndex(ctx, dimension)
	})
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	return s.run(ctx, "upsert", namespace, func(ctx context.Context) error {
		return s.inner.Upsert(ctx, namespace, vectors)
	})
}

func (s *instrumentedVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	var out []pinecone.VectorMatch
	err := s.run(ctx, "query_matches", namespace, func(ctx context.Context) error {
		var err error
		out, err = s.inner.QueryMatches(ctx, namespace, q, topK, filter)
		return err
	})
	return out, err
}

func (s *instrumentedVectorStore) QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error) {
	var out []string
	err := s.run(ctx, "query_ids", namespace, func(ctx context.Context) error {
		var err error
		out, err = s.inner.QueryIDs(ctx, namespace, q, topK, filter)
		return err
	})
	return out, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return s.run(ctx, "delete_ids", namespace, func(ctx context.Context) error {
		return s.inner.DeleteIDs(ctx, namespace, ids)
	})
}

func (s *instrumentedVectorStore) run(ctx context.Context, operation, namespace string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer("edugenius/vectorstore").Start(ctx, "vectorstore."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("vector.provider", s.provider),
		attribute.String("vector.namespace", namespace),
	)

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.ObserveVectorStoreOperation(s.provider, operation, status, time.Since(start))
	return err
}
