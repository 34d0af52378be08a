package provider

import (
	"context"
	"fmt"

	"github.com/yungbote/edugenius-backend/internal/platform/anthropic"
	"github.com/yungbote/edugenius-backend/internal/platform/gemini"
	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
	"github.com/yungbote/edugenius-backend/internal/platform/openai"
)

// OpenAI adapts an OpenAI-compatible client (including Google's compatibility
// endpoint) to Generator and Embedder.
type OpenAI struct {
	c   openai.Client
	dim int
}

func NewOpenAI(c openai.Client, dimension int) *OpenAI {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &OpenAI{c: c, dim: dimension}
}

func (p *OpenAI) Dimension() int { return p.dim }

func (p *OpenAI) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	msgs := make([]openai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.Message{Role: m.Role, Content: m.Content})
	}
	out, err := p.c.Chat(ctx, openai.ChatRequest{
		System:    req.System,
		Messages:  msgs,
		MaxTokens: req.MaxOutputTokens,
		JSON:      req.JSON,
	})
	if err != nil {
		return "", generationError("openai", err)
	}
	return out, nil
}

func (p *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := p.c.Embed(ctx, texts)
	if err != nil {
		return nil, embeddingError("openai", err)
	}
	return checkVectors("openai", vecs, len(texts), p.dim)
}

// Gemini adapts the google.golang.org/genai backed client.
type Gemini struct {
	c   gemini.Client
	dim int
}

func NewGemini(c gemini.Client, dimension int) *Gemini {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Gemini{c: c, dim: dimension}
}

func (p *Gemini) Dimension() int { return p.dim }

func (p *Gemini) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	turns := make([]gemini.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		turns = append(turns, gemini.Turn{Role: m.Role, Text: m.Content})
	}
	out, err := p.c.Generate(ctx, gemini.GenerateRequest{
		System:          req.System,
		Turns:           turns,
		MaxOutputTokens: req.MaxOutputTokens,
		JSON:            req.JSON,
	})
	if err != nil {
		return "", generationError("gemini", err)
	}
	return out, nil
}

func (p *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := p.c.Embed(ctx, texts)
	if err != nil {
		return nil, embeddingError("gemini", err)
	}
	return checkVectors("gemini", vecs, len(texts), p.dim)
}

// Anthropic generates text only. JSON output is requested through the prompt.
type Anthropic struct {
	c anthropic.Client
}

func NewAnthropic(c anthropic.Client) *Anthropic { return &Anthropic{c: c} }

func (p *Anthropic) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	turns := make([]anthropic.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		turns = append(turns, anthropic.Turn{Role: m.Role, Text: m.Content})
	}
	out, err := p.c.Generate(ctx, anthropic.GenerateRequest{
		System:    req.System,
		Turns:     turns,
		MaxTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return "", generationError("anthropic", err)
	}
	return out, nil
}

func generationError(provider string, err error) error {
	return &GenerationError{Provider: provider, Transient: httpx.IsRetryableError(err), Err: err}
}

func embeddingError(provider string, err error) error {
	return &EmbeddingError{Provider: provider, Transient: httpx.IsRetryableError(err), Err: err}
}

func checkVectors(provider string, vecs [][]float32, want, dim int) ([][]float32, error) {
	if len(vecs) != want {
		return nil, &EmbeddingError{Provider: provider, Partial: vecs, Err: fmt.Errorf("got %d vectors for %d inputs", len(vecs), want)}
	}
	for i, v := range vecs {
		if len(v) != dim {
			return nil, &EmbeddingError{Provider: provider, Err: fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)}
		}
	}
	return vecs, nil
}
