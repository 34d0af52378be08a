// Package retrieval answers tutor chat messages with course context.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/index"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const DefaultTopK = 5

// HistoryWindow is how many prior turns reach the model.
const HistoryWindow = 10

const (
	// messages shorter than this are expanded into a search query first
	expandBelowRunes   = 10
	expansionMaxTokens = 50
	contextSeparator   = "\n\n---\n\n"
)

type ChatRequest struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	Message  string
	History  []provider.Message
}

type Source struct {
	LessonID string  `json:"lesson_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

type ChatAnswer struct {
	Text        string
	ContextUsed bool
	Sources     []Source
}

type Config struct {
	TopK int
}

type Orchestrator struct {
	chat    provider.Generator
	expand  provider.Generator
	emb     provider.Embedder
	idx     *index.Index
	prompts *prompts.Registry
	log     *logger.Logger
	topK    int
}

func New(gens *provider.Registry, emb provider.Embedder, idx *index.Index, reg *prompts.Registry, cfg Config, baseLog *logger.Logger) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Orchestrator{
		chat:    gens.For(provider.TaskChat),
		expand:  gens.For(provider.TaskExpand),
		emb:     emb,
		idx:     idx,
		prompts: reg,
		log:     baseLog.With("service", "RetrievalOrchestrator"),
		topK:    cfg.TopK,
	}
}

// Chat retrieves course context for the message and asks the tutor model to
// answer. Retrieval problems degrade to an answer without context; a failed
// generation is returned as *provider.GenerationError.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatAnswer, error) {
	ctx, span := otel.Tracer("edugenius/retrieval").Start(ctx, "retrieval.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", req.CourseID.String()))

	log := o.log.With("user_id", req.UserID, "course_id", req.CourseID)

	query := o.searchQuery(ctx, log, req.Message)
	matches := o.retrieve(ctx, log, req.CourseID, query)
	contextText := BuildContext(matches)
	span.SetAttributes(attribute.Int("matches", len(matches)))

	p, err := o.prompts.Build(prompts.PromptTutorChat, prompts.Input{
		Context:    contextText,
		Transcript: Transcript(req.History, req.Message),
	})
	if err != nil {
		return nil, err
	}
	text, err := o.chat.GenerateText(ctx, provider.UserPrompt(p.System, p.User))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ans := &ChatAnswer{Text: text, ContextUsed: contextText != ""}
	for _, m := range matches {
		ans.Sources = append(ans.Sources, Source{LessonID: m.Text("lesson_id"), Title: m.Text("title"), Score: m.Score})
	}
	return ans, nil
}

// Search embeds query and returns the best matching chunks of a course.
func (o *Orchestrator) Search(ctx context.Context, courseID uuid.UUID, query string, topK int) ([]index.Match, error) {
	vecs, err := o.emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, &provider.EmbeddingError{Provider: "query", Partial: vecs, Err: fmt.Errorf("got %d vectors for 1 query", len(vecs))}
	}
	return o.idx.Query(ctx, index.CourseNamespace, vecs[0], topK, index.CourseFilter(courseID.String()))
}

func (o *Orchestrator) searchQuery(ctx context.Context, log *logger.Logger, message string) string {
	if utf8.RuneCountInString(message) >= expandBelowRunes {
		return message
	}
	p, err := o.prompts.Build(prompts.PromptQueryExpansion, prompts.Input{Message: message})
	if err != nil {
		log.Warn("query expansion prompt failed", "error", err)
		return message
	}
	req := provider.UserPrompt(p.System, p.User)
	req.MaxOutputTokens = expansionMaxTokens
	expanded, err := o.expand.GenerateText(ctx, req)
	if err != nil || strings.TrimSpace(expanded) == "" {
		log.Warn("query expansion failed, using raw message", "error", err)
		return message
	}
	return strings.TrimSpace(expanded)
}

func (o *Orchestrator) retrieve(ctx context.Context, log *logger.Logger, courseID uuid.UUID, query string) []index.Match {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	matches, err := o.Search(ctx, courseID, query, o.topK)
	if err != nil {
		log.Warn("retrieval failed, answering without context", "error", err)
		return nil
	}
	return matches
}

// BuildContext renders matches as "Source: <title>\nContent: <text>" blocks.
func BuildContext(matches []index.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, "Source: "+m.Text("title")+"\nContent: "+m.Text("text"))
	}
	return strings.Join(parts, contextSeparator)
}

// Transcript keeps the last HistoryWindow turns and appends the new user
// message, one "Role: content" line per turn.
func Transcript(history []provider.Message, message string) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	var b strings.Builder
	for _, h := range history {
		b.WriteString(capitalize(h.Role))
		b.WriteString(": ")
		b.WriteString(h.Content)
		b.WriteByte('\n')
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteByte('\n')
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
