package generation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
)

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuizDraft is returned to the caller and never stored.
type QuizDraft struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// GenerateQuiz writes a five question quiz for a lesson. A missing lesson
// yields store.ErrNotFound.
func (g *Generator) GenerateQuiz(ctx context.Context, lessonID uuid.UUID) (*QuizDraft, error) {
	ctx, span := otel.Tracer("edugenius/generation").Start(ctx, "generation.GenerateQuiz")
	defer span.End()

	lesson, err := g.store.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	var quiz QuizDraft
	err = g.structured(ctx, provider.TaskQuiz, prompts.PromptLessonQuiz, prompts.Input{
		LessonTitle:   lesson.Title,
		LessonContent: lesson.Content,
	}, &quiz)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &quiz, nil
}
