// Package ai exposes the tutor chat, quiz, course and ingestion operations.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/data/repos"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/chunker"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/generation"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/index"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/ingestion"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/retrieval"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/apierr"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

type (
	ChatAnswer    = retrieval.ChatAnswer
	QuizDraft     = generation.QuizDraft
	CourseRequest = generation.CourseRequest
	CourseSummary = generation.CourseSummary
	IngestReport  = ingestion.IngestReport
	PruneReport   = ingestion.PruneReport
	Message       = provider.Message
)

type Config struct {
	Dimension       int
	TopK            int
	ChunkWindow     int
	ChunkOverlap    int
	Concurrency     int
	IngestGenerated bool
}

type UsecasesDeps struct {
	DB    *gorm.DB
	Log   *logger.Logger
	Repos repos.Repos

	Generators *provider.Registry
	Embedder   provider.Embedder
	Vec        pinecone.VectorStore
	Prompts    *prompts.Registry
	Metrics    *observability.Metrics

	Config Config
}

type Usecases struct {
	log       *logger.Logger
	dimension int
	idx       *index.Index
	chat      *retrieval.Orchestrator
	gen       *generation.Generator
	ingest    *ingestion.Pipeline
	metrics   *observability.Metrics
}

func New(deps UsecasesDeps) *Usecases {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	reg := deps.Prompts
	if reg == nil {
		reg = prompts.Default()
	}
	cfg := deps.Config
	if cfg.Dimension <= 0 {
		cfg.Dimension = deps.Embedder.Dimension()
	}

	gw := store.New(deps.DB, deps.Repos, log)
	idx := index.New(deps.Vec, log)
	pipe := ingestion.New(gw, deps.Embedder, idx, ingestion.Config{
		Window:      cfg.ChunkWindow,
		Overlap:     cfg.ChunkOverlap,
		Concurrency: cfg.Concurrency,
	}, log)
	return &Usecases{
		log:       log.With("service", "AIUsecases"),
		dimension: cfg.Dimension,
		idx:       idx,
		chat:      retrieval.New(deps.Generators, deps.Embedder, idx, reg, retrieval.Config{TopK: cfg.TopK}, log),
		gen:       generation.New(deps.Generators, gw, reg, pipe, generation.Config{IngestGenerated: cfg.IngestGenerated}, log),
		ingest:    pipe,
		metrics:   deps.Metrics,
	}
}

// EnsureIndex prepares the vector index for the configured embedding dimension.
func (u *Usecases) EnsureIndex(ctx context.Context) error {
	return u.idx.EnsureIndex(ctx, u.dimension)
}

type ChatInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	Message  string
	History  []Message
}

func (u *Usecases) Chat(ctx context.Context, in ChatInput) (*ChatAnswer, error) {
	if in.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if in.CourseID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_course_id", fmt.Errorf("missing course_id"))
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_message", nil)
	}
	start := time.Now()
	ans, err := u.chat.Chat(ctx, retrieval.ChatRequest{
		UserID:   in.UserID,
		CourseID: in.CourseID,
		Message:  in.Message,
		History:  in.History,
	})
	if err != nil {
		return nil, u.fail("chat", start, err)
	}
	u.done("chat", start)
	return ans, nil
}

func (u *Usecases) GenerateQuiz(ctx context.Context, lessonID uuid.UUID) (*QuizDraft, error) {
	if lessonID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_lesson_id", fmt.Errorf("missing lesson_id"))
	}
	start := time.Now()
	quiz, err := u.gen.GenerateQuiz(ctx, lessonID)
	if err != nil {
		return nil, u.fail("generate_quiz", start, err)
	}
	u.done("generate_quiz", start)
	return quiz, nil
}

func (u *Usecases) GenerateCourse(ctx context.Context, userID uuid.UUID, req CourseRequest) (*CourseSummary, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_topic", nil)
	}
	start := time.Now()
	sum, err := u.gen.GenerateCourse(ctx, userID, req)
	if err != nil {
		return nil, u.fail("generate_course", start, err)
	}
	u.done("generate_course", start)
	return sum, nil
}

func (u *Usecases) ExplainCode(ctx context.Context, code, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", apierr.New(http.StatusBadRequest, "missing_code", nil)
	}
	start := time.Now()
	out, err := u.gen.ExplainCode(ctx, code, language)
	if err != nil {
		return "", u.fail("explain_code", start, err)
	}
	u.done("explain_code", start)
	return out, nil
}

func (u *Usecases) IngestCourse(ctx context.Context, courseID uuid.UUID) (*IngestReport, error) {
	if courseID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_course_id", fmt.Errorf("missing course_id"))
	}
	start := time.Now()
	rep, err := u.ingest.IngestCourse(ctx, courseID)
	if err != nil {
		return nil, u.fail("ingest_course", start, err)
	}
	u.done("ingest_course", start)
	return rep, nil
}

// Close waits for background ingestion of generated courses, canceling it
// when ctx ends first.
func (u *Usecases) Close(ctx context.Context) error {
	return u.gen.Close(ctx)
}

// PruneCourse removes indexed chunks the course's current lessons no longer
// produce. Works for deleted courses too.
func (u *Usecases) PruneCourse(ctx context.Context, courseID uuid.UUID) (*PruneReport, error) {
	if courseID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_course_id", fmt.Errorf("missing course_id"))
	}
	start := time.Now()
	rep, err := u.ingest.PruneCourse(ctx, courseID)
	if err != nil {
		return nil, u.fail("prune_course", start, err)
	}
	u.done("prune_course", start)
	return rep, nil
}

func (u *Usecases) done(op string, start time.Time) {
	u.metrics.ObserveAIOperation(op, "ok", time.Since(start))
}

func (u *Usecases) fail(op string, start time.Time, err error) error {
	ae := u.toAPIError(op, err)
	code := "error"
	if e, ok := apierr.As(ae); ok {
		code = e.Code
	}
	u.metrics.ObserveAIOperation(op, code, time.Since(start))
	return ae
}

// toAPIError maps pipeline errors onto the HTTP error payload.
func (u *Usecases) toAPIError(op string, err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	var (
		cfgErr   *chunker.ConfigError
		parseErr *provider.ParseFailure
		genErr   *provider.GenerationError
		embErr   *provider.EmbeddingError
		idxErr   *index.Error
		persist  *generation.PersistenceError
		inputErr *prompts.InputError
	)
	var ae *apierr.Error
	switch {
	case errors.Is(err, context.Canceled):
		ae = apierr.New(499, "canceled", err)
	case errors.Is(err, store.ErrNotFound):
		ae = apierr.New(http.StatusNotFound, "not_found", err)
	case errors.As(err, &cfgErr):
		ae = apierr.New(http.StatusBadRequest, "invalid_configuration", err)
	case errors.As(err, &inputErr):
		ae = apierr.New(http.StatusUnprocessableEntity, "invalid_input", err)
	case errors.As(err, &parseErr):
		ae = apierr.New(http.StatusBadGateway, "generation_parse_failed", err).
			WithDetails(map[string]any{"raw": parseErr.Raw, "violations": parseErr.Violations})
	case errors.As(err, &genErr):
		ae = apierr.New(http.StatusBadGateway, "generation_failed", err)
	case errors.As(err, &embErr):
		ae = apierr.New(http.StatusBadGateway, "embedding_failed", err)
	case errors.Is(err, index.ErrContract):
		ae = apierr.New(http.StatusInternalServerError, "index_contract_violation", err)
	case errors.As(err, &idxErr):
		ae = apierr.New(http.StatusBadGateway, "index_unavailable", err)
	case errors.As(err, &persist):
		ae = apierr.New(http.StatusInternalServerError, "persistence_failed", err)
	default:
		ae = apierr.New(http.StatusInternalServerError, "internal_error", err)
	}
	if ae.Status >= http.StatusInternalServerError {
		u.log.Error("ai operation failed", "op", op, "code", ae.Code, "error", err)
	} else {
		u.log.Warn("ai operation rejected", "op", op, "code", ae.Code, "error", err)
	}
	return ae
}
