// Package openai is a client for OpenAI-compatible chat completion and
// embedding endpoints. The default base URL is Google's OpenAI-compatible
// Gemini endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultModel      = "gemini-2.0-flash"
	defaultEmbedModel = "text-embedding-004"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	System    string
	Messages  []Message
	MaxTokens int
	// JSON requests response_format json_object.
	JSON bool
}

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
	EmbedModel() string
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	EmbedModel  string
	Dimensions  int
	Temperature *float64
	Timeout     time.Duration
	MaxRetries  int
}

// ConfigFromEnv reads OPENAI_* settings. AI_TIMEOUT_SECONDS bounds each attempt.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:     envutil.String("OPENAI_API_KEY", envutil.String("GOOGLE_API_KEY", "")),
		BaseURL:    envutil.String("OPENAI_BASE_URL", defaultBaseURL),
		Model:      envutil.String("OPENAI_MODEL", defaultModel),
		EmbedModel: envutil.String("OPENAI_EMBED_MODEL", defaultEmbedModel),
		Dimensions: envutil.Int("OPENAI_EMBED_DIMENSIONS", 0),
		Timeout:    envutil.Seconds("AI_TIMEOUT_SECONDS", 60*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 1),
	}
	if raw := strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "0.7")); raw != "off" && raw != "none" {
		t := envutil.Float("OPENAI_TEMPERATURE", 0.7)
		cfg.Temperature = &t
	}
	return cfg
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	dimensions int
	temp       *float64
	policy     httpx.Policy
	http       *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embed := strings.TrimSpace(cfg.EmbedModel)
	if embed == "" {
		embed = defaultEmbedModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	policy := httpx.DefaultPolicy(cfg.Timeout)
	if cfg.MaxRetries >= 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		embedModel: embed,
		dimensions: cfg.Dimensions,
		temp:       cfg.Temperature,
		policy:     policy,
		http:       &http.Client{},
	}, nil
}

func (c *client) Model() string      { return c.model }
func (c *client) EmbedModel() string { return c.embedModel }

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func (c *client) do(ctx context.Context, op, method, path string, body any, out any) error {
	return httpx.Do(ctx, c.log, op, c.policy, func(ctx context.Context) error {
		raw, err := c.doOnce(ctx, method, path, body)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("openai decode error: %w; raw=%s", err, truncate(string(raw), 256))
		}
		return nil
	})
}

// -------------------- Chat completions --------------------

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *client) Chat(ctx context.Context, in ChatRequest) (string, error) {
	msgs := make([]Message, 0, len(in.Messages)+1)
	if s := strings.TrimSpace(in.System); s != "" {
		msgs = append(msgs, Message{Role: "system", Content: s})
	}
	msgs = append(msgs, in.Messages...)
	if len(msgs) == 0 {
		return "", fmt.Errorf("chat requires at least one message")
	}
	req := chatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temp,
		MaxTokens:   in.MaxTokens,
	}
	if in.JSON {
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, "chat", http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat returned no choices")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("openai chat returned empty content (finish_reason=%s)", choice.FinishReason)
	}
	return choice.Message.Content, nil
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order, from a single request.
func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	req := embeddingsRequest{Model: c.embedModel, Input: clean, Dimensions: c.dimensions}
	if err := c.do(ctx, "embed", http.MethodPost, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			// some compatible endpoints omit index; fall back to position
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return out, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d model=%s",
				i, len(clean), len(resp.Data), c.embedModel)
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
