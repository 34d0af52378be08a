package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/anthropic"
	"github.com/yungbote/edugenius-backend/internal/platform/gemini"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
	"github.com/yungbote/edugenius-backend/internal/platform/openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var (
	newOpenAIClient    = openai.NewClient
	newGeminiClient    = gemini.NewClient
	newAnthropicClient = anthropic.NewClient
)

// providerSet builds each vendor client at most once, on first use.
type providerSet struct {
	ctx     context.Context
	log     *logger.Logger
	cfg     Config
	metrics *observability.Metrics

	openai    *provider.OpenAI
	gemini    *provider.Gemini
	anthropic *provider.Anthropic
}

func (p *providerSet) generator(name string) (provider.Generator, error) {
	var (
		g   provider.Generator
		err error
	)
	switch name {
	case ProviderOpenAI:
		g, err = p.openAI()
	case ProviderGemini:
		g, err = p.geminiAdapter()
	case ProviderAnthropic:
		g, err = p.anthropicAdapter()
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q (want openai, gemini or anthropic)", name)
	}
	if err != nil {
		return nil, err
	}
	return instrumentGenerator(name, g, p.metrics), nil
}

func (p *providerSet) embedder(name string) (provider.Embedder, error) {
	var (
		e   provider.Embedder
		err error
	)
	switch name {
	case ProviderOpenAI:
		e, err = p.openAI()
	case ProviderGemini:
		e, err = p.geminiAdapter()
	default:
		return nil, fmt.Errorf("unsupported EMBED_PROVIDER %q (want openai or gemini)", name)
	}
	if err != nil {
		return nil, err
	}
	return instrumentEmbedder(name, e, p.metrics), nil
}

func (p *providerSet) openAI() (*provider.OpenAI, error) {
	if p.openai == nil {
		c, err := newOpenAIClient(p.log, p.cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		p.openai = provider.NewOpenAI(c, p.cfg.EmbedDim)
	}
	return p.openai, nil
}

func (p *providerSet) geminiAdapter() (*provider.Gemini, error) {
	if p.gemini == nil {
		c, err := newGeminiClient(p.ctx, p.log, p.cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		p.gemini = provider.NewGemini(c, p.cfg.EmbedDim)
	}
	return p.gemini, nil
}

func (p *providerSet) anthropicAdapter() (*provider.Anthropic, error) {
	if p.anthropic == nil {
		c, err := newAnthropicClient(p.log, p.cfg.Anthropic)
		if err != nil {
			return nil, fmt.Errorf("init anthropic client: %w", err)
		}
		p.anthropic = provider.NewAnthropic(c)
	}
	return p.anthropic, nil
}

// wireProviders resolves the default generator, per-task overrides and the
// embedder, then applies rate limiting and the embedding cache.
func wireProviders(ctx context.Context, log *logger.Logger, cfg Config, rdb redis.UniversalClient, metrics *observability.Metrics) (*provider.Registry, provider.Embedder, error) {
	log.Info("Wiring model providers...", "ai_provider", cfg.AIProvider, "embed_provider", cfg.EmbedProvider)
	set := &providerSet{ctx: ctx, log: log, cfg: cfg, metrics: metrics}
	lim := provider.NewLimiter(cfg.RateLimitRPS, cfg.RateBurst)

	def, err := set.generator(cfg.AIProvider)
	if err != nil {
		return nil, nil, err
	}
	gens := provider.NewRegistry(provider.LimitGenerator(def, lim))
	for task, name := range cfg.TaskProviders {
		g, err := set.generator(name)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", task, err)
		}
		gens.Set(task, provider.LimitGenerator(g, lim))
	}

	emb, err := set.embedder(cfg.EmbedProvider)
	if err != nil {
		return nil, nil, err
	}
	cached, err := provider.NewCachedEmbedder(provider.LimitEmbedder(emb, lim), rdb, provider.EmbedCacheConfig{
		Namespace: fmt.Sprintf("emb:%s:%d", cfg.EmbedProvider, cfg.EmbedDim),
		Size:      cfg.EmbedCacheSize,
		TTL:       cfg.EmbedCacheTTL,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return gens, cached, nil
}
