package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// NewLimiter returns nil when rps is not positive, which disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = max(1, int(rps))
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type limitedGenerator struct {
	next Generator
	lim  *rate.Limiter
}

// LimitGenerator waits on lim before every call. A nil limiter returns g.
func LimitGenerator(g Generator, lim *rate.Limiter) Generator {
	if lim == nil {
		return g
	}
	return &limitedGenerator{next: g, lim: lim}
}

func (l *limitedGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return "", &GenerationError{Provider: "ratelimit", Err: err}
	}
	return l.next.GenerateText(ctx, req)
}

type limitedEmbedder struct {
	next Embedder
	lim  *rate.Limiter
}

func LimitEmbedder(e Embedder, lim *rate.Limiter) Embedder {
	if lim == nil {
		return e
	}
	return &limitedEmbedder{next: e, lim: lim}
}

func (l *limitedEmbedder) Dimension() int { return l.next.Dimension() }

func (l *limitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return nil, &EmbeddingError{Provider: "ratelimit", Err: err}
	}
	return l.next.Embed(ctx, texts)
}
