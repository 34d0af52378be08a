// Package anthropic wraps the Anthropic Messages API for text generation.
// Anthropic has no embedding endpoint; pair it with an OpenAI-compatible or
// Gemini embedder.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 4096
)

type Turn struct {
	Role string
	Text string
}

type GenerateRequest struct {
	System    string
	Turns     []Turn
	MaxTokens int
}

type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Model() string
}

type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("ANTHROPIC_API_KEY", ""),
		Model:       envutil.String("ANTHROPIC_MODEL", defaultModel),
		MaxTokens:   envutil.Int("ANTHROPIC_MAX_TOKENS", defaultMaxTokens),
		Temperature: envutil.Float("ANTHROPIC_TEMPERATURE", 0.7),
		Timeout:     envutil.Seconds("AI_TIMEOUT_SECONDS", 60*time.Second),
		MaxRetries:  envutil.Int("ANTHROPIC_MAX_RETRIES", 1),
	}
}

// messages is the subset of anthropic.MessageService used here.
type messages interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type client struct {
	log *logger.Logger
	msg messages
	cfg Config
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	// The SDK retries 408/429/5xx and connection errors itself.
	ac := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return newWithMessages(log, &ac.Messages, cfg), nil
}

func newWithMessages(log *logger.Logger, m messages, cfg Config) *client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &client{log: log.With("service", "AnthropicClient"), msg: m, cfg: cfg}
}

func (c *client) Model() string { return c.cfg.Model }

func (c *client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	turns := toMessages(req.Turns)
	if len(turns) == 0 {
		return "", fmt.Errorf("generate requires at least one turn")
	}
	maxTokens := c.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages:  turns,
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}
	if s := strings.TrimSpace(req.System); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}

	resp, err := c.msg.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response generated from %s", c.cfg.Model)
	}
	return b.String(), nil
}

// toMessages drops empty turns and merges consecutive same-role turns,
// since the Messages API requires alternating roles.
func toMessages(turns []Turn) []anthropic.MessageParam {
	type merged struct {
		assistant bool
		text      string
	}
	var ms []merged
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		assistant := strings.EqualFold(t.Role, "assistant") || strings.EqualFold(t.Role, "model")
		if n := len(ms); n > 0 && ms[n-1].assistant == assistant {
			ms[n-1].text += "\n\n" + text
			continue
		}
		ms = append(ms, merged{assistant: assistant, text: text})
	}
	// first message must come from the user
	for len(ms) > 0 && ms[0].assistant {
		ms = ms[1:]
	}
	out := make([]anthropic.MessageParam, 0, len(ms))
	for _, m := range ms {
		if m.assistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.text)))
		} else {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.text)))
		}
	}
	return out
}

// StatusError exposes the HTTP status of an API failure to httpx classification.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string       { return fmt.Sprintf("anthropic api %d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Code }

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return &StatusError{Code: apiErr.StatusCode, Err: err}
	}
	return err
}
