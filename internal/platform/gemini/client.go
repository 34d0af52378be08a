// Package gemini wraps google.golang.org/genai for text generation and
// batched embeddings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const (
	defaultModel      = "gemini-2.0-flash"
	defaultEmbedModel = "text-embedding-004"
)

type Turn struct {
	// Role is "user" or "assistant".
	Role string
	Text string
}

type GenerateRequest struct {
	System          string
	Turns           []Turn
	MaxOutputTokens int
	JSON            bool
}

type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type Config struct {
	APIKey      string
	Model       string
	EmbedModel  string
	Dimension   int
	Temperature float32
	Timeout     time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("GEMINI_API_KEY", envutil.String("GOOGLE_API_KEY", "")),
		Model:       envutil.String("GEMINI_MODEL", defaultModel),
		EmbedModel:  envutil.String("GEMINI_EMBED_MODEL", defaultEmbedModel),
		Dimension:   envutil.Int("EMBED_DIM", 768),
		Temperature: float32(envutil.Float("GEMINI_TEMPERATURE", 0.7)),
		Timeout:     envutil.Seconds("AI_TIMEOUT_SECONDS", 60*time.Second),
	}
}

// models is the subset of *genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type client struct {
	log    *logger.Logger
	models models
	cfg    Config
	policy httpx.Policy
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithModels(log, gc.Models, cfg), nil
}

func newWithModels(log *logger.Logger, m models, cfg Config) *client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:    log.With("service", "GeminiClient"),
		models: m,
		cfg:    cfg,
		policy: httpx.DefaultPolicy(cfg.Timeout),
	}
}

func (c *client) Model() string { return c.cfg.Model }

func (c *client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents := toContents(req.Turns)
	if len(contents) == 0 {
		return "", fmt.Errorf("generate requires at least one turn")
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if s := strings.TrimSpace(req.System); s != "" {
		config.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	var text string
	err := httpx.Do(ctx, c.log, "gemini_generate", c.policy, func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, config)
		if err != nil {
			return classify(err)
		}
		text = extractText(resp)
		if text == "" {
			return fmt.Errorf("no response generated from %s", c.cfg.Model)
		}
		return nil
	})
	return text, err
}

// Embed sends all texts in one EmbedContent call and returns vectors in input order.
func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	config := &genai.EmbedContentConfig{}
	if c.cfg.Dimension > 0 {
		dim := int32(c.cfg.Dimension)
		config.OutputDimensionality = &dim
	}

	var out [][]float32
	err := httpx.Do(ctx, c.log, "gemini_embed", c.policy, func(ctx context.Context) error {
		resp, err := c.models.EmbedContent(ctx, c.cfg.EmbedModel, contents, config)
		if err != nil {
			return classify(err)
		}
		if resp == nil || len(resp.Embeddings) != len(texts) {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return fmt.Errorf("gemini embeddings: requested=%d returned=%d", len(texts), got)
		}
		out = make([][]float32, len(texts))
		for i, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return fmt.Errorf("gemini embeddings: empty vector at index %d", i)
			}
			out[i] = e.Values
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toContents(turns []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if strings.EqualFold(t.Role, "assistant") || strings.EqualFold(t.Role, "model") {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(t.Text, role))
	}
	return out
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// StatusError carries the HTTP status of a genai API failure so callers can
// classify it with httpx.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini api %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Code }

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{Code: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return err
}
