package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/observability"
)

type instrumentedGenerator struct {
	name    string
	inner   provider.Generator
	metrics *observability.Metrics
}

func instrumentGenerator(name string, g provider.Generator, metrics *observability.Metrics) provider.Generator {
	return &instrumentedGenerator{name: name, inner: g, metrics: metrics}
}

func (g *instrumentedGenerator) GenerateText(ctx context.Context, req provider.TextRequest) (string, error) {
	ctx, span := startProviderSpan(ctx, g.name, "generate")
	defer span.End()
	span.SetAttributes(attribute.Int("ai.messages", len(req.Messages)), attribute.Bool("ai.json", req.JSON))

	start := time.Now()
	out, err := g.inner.GenerateText(ctx, req)
	endProviderCall(span, g.metrics, g.name, "generate", err, time.Since(start))
	return out, err
}

type instrumentedEmbedder struct {
	name    string
	inner   provider.Embedder
	metrics *observability.Metrics
}

func instrumentEmbedder(name string, e provider.Embedder, metrics *observability.Metrics) provider.Embedder {
	return &instrumentedEmbedder{name: name, inner: e, metrics: metrics}
}

func (e *instrumentedEmbedder) Dimension() int { return e.inner.Dimension() }

func (e *instrumentedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := startProviderSpan(ctx, e.name, "embed")
	defer span.End()
	span.SetAttributes(attribute.Int("ai.inputs", len(texts)))

	start := time.Now()
	out, err := e.inner.Embed(ctx, texts)
	endProviderCall(span, e.metrics, e.name, "embed", err, time.Since(start))
	return out, err
}

func startProviderSpan(ctx context.Context, name, kind string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("edugenius/provider").Start(ctx, "provider."+kind)
	span.SetAttributes(attribute.String("ai.provider", name))
	return ctx, span
}

func endProviderCall(span trace.Span, m *observability.Metrics, name, kind string, err error, dur time.Duration) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	m.ObserveProviderCall(name, kind, err, dur)
}
