package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/datatypes"

	types "github.com/yungbote/edugenius-backend/internal/domain"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
)

const (
	DefaultDifficulty = "beginner"
	ingestTimeout     = 5 * time.Minute
)

type CourseRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Audience   string `json:"target_audience"`
}

type LessonDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ModuleDraft struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Lessons     []LessonDraft `json:"lessons"`
}

type CourseDraft struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Modules     []ModuleDraft `json:"modules"`
}

type CourseSummary struct {
	CourseID uuid.UUID `json:"course_id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
}

// PersistenceError wraps a failed write of a generated course. Nothing of the
// course remains after it is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persist generated course: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerateCourse drafts a course for userID and stores the whole tree in one
// transaction.
func (g *Generator) GenerateCourse(ctx context.Context, userID uuid.UUID, req CourseRequest) (*CourseSummary, error) {
	ctx, span := otel.Tracer("edugenius/generation").Start(ctx, "generation.GenerateCourse")
	defer span.End()

	if strings.TrimSpace(req.Difficulty) == "" {
		req.Difficulty = DefaultDifficulty
	}
	var draft CourseDraft
	err := g.structured(ctx, provider.TaskCourse, prompts.PromptCourseOutline, prompts.Input{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Audience:   req.Audience,
	}, &draft)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	courseID, err := g.persist(ctx, userID, req, draft)
	if err != nil {
		span.RecordError(err)
		return nil, &PersistenceError{Err: err}
	}
	g.log.Info("generated course stored", "course_id", courseID, "modules", len(draft.Modules))

	if g.cfg.IngestGenerated && g.ingest != nil {
		g.ingestAsync(ctx, courseID)
	}
	return &CourseSummary{
		CourseID: courseID,
		Title:    draft.Title,
		Message:  fmt.Sprintf("Course '%s' generated successfully with %d modules.", draft.Title, len(draft.Modules)),
	}, nil
}

func (g *Generator) persist(ctx context.Context, userID uuid.UUID, req CourseRequest, draft CourseDraft) (uuid.UUID, error) {
	meta, err := json.Marshal(map[string]any{
		"topic":    req.Topic,
		"audience": req.Audience,
		"source":   "ai",
	})
	if err != nil {
		return uuid.Nil, err
	}
	course := &types.Course{
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		Level:       req.Difficulty,
		Subject:     req.Topic,
		Metadata:    datatypes.JSON(meta),
	}
	err = g.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateCourse(ctx, course); err != nil {
			return err
		}
		for i, md := range draft.Modules {
			module := &types.CourseModule{
				CourseID:    course.ID,
				Order:       i,
				Title:       md.Title,
				Description: md.Description,
			}
			if err := tx.CreateModule(ctx, module); err != nil {
				return fmt.Errorf("module %d: %w", i, err)
			}
			for j, ld := range md.Lessons {
				lesson := &types.Lesson{
					ModuleID: module.ID,
					Order:    j,
					Title:    ld.Title,
					Content:  ld.Content,
				}
				if err := tx.CreateLesson(ctx, lesson); err != nil {
					return fmt.Errorf("module %d lesson %d: %w", i, j, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return course.ID, nil
}

// ingestAsync indexes the course in the background. Failures are logged only.
func (g *Generator) ingestAsync(ctx context.Context, courseID uuid.UUID) {
	g.bgMu.Lock()
	defer g.bgMu.Unlock()
	if g.closed {
		g.log.Warn("shutting down, generated course not ingested", "course_id", courseID)
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), ingestTimeout)
	stop := context.AfterFunc(g.bgCtx, cancel)
	g.bg.Add(1)
	go func() {
		defer g.bg.Done()
		defer stop()
		defer cancel()
		if _, err := g.ingest.IngestCourse(bg, courseID); err != nil {
			g.log.Warn("ingesting generated course failed", "course_id", courseID, "error", err)
		}
	}()
}
