package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/edugenius-backend/internal/http/response"
	"github.com/yungbote/edugenius-backend/internal/modules/ai"
	"github.com/yungbote/edugenius-backend/internal/platform/ctxutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// AIService is the subset of *ai.Usecases the handlers call.
type AIService interface {
	Chat(ctx context.Context, in ai.ChatInput) (*ai.ChatAnswer, error)
	GenerateQuiz(ctx context.Context, lessonID uuid.UUID) (*ai.QuizDraft, error)
	GenerateCourse(ctx context.Context, userID uuid.UUID, req ai.CourseRequest) (*ai.CourseSummary, error)
	ExplainCode(ctx context.Context, code, language string) (string, error)
	IngestCourse(ctx context.Context, courseID uuid.UUID) (*ai.IngestReport, error)
}

type AIHandler struct {
	log *logger.Logger
	svc AIService
}

func NewAIHandler(log *logger.Logger, svc AIService) *AIHandler {
	return &AIHandler{log: log.With("handler", "AIHandler"), svc: svc}
}

type chatRequest struct {
	CourseID string       `json:"course_id" binding:"required"`
	Message  string       `json:"message" binding:"required"`
	History  []ai.Message `json:"history"`
}

type chatResponse struct {
	Response    string   `json:"response"`
	ContextUsed bool     `json:"context_used"`
	Sources     []source `json:"sources,omitempty"`
}

type source struct {
	LessonID string  `json:"lesson_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// POST /api/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	ans, err := h.svc.Chat(c.Request.Context(), ai.ChatInput{
		UserID:   userID,
		CourseID: courseID,
		Message:  req.Message,
		History:  req.History,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := chatResponse{Response: ans.Text, ContextUsed: ans.ContextUsed}
	for _, s := range ans.Sources {
		out.Sources = append(out.Sources, source{LessonID: s.LessonID, Title: s.Title, Score: s.Score})
	}
	response.RespondOK(c, out)
}

type quizRequest struct {
	LessonID string `json:"lesson_id" binding:"required"`
}

// POST /api/ai/generate-quiz
func (h *AIHandler) GenerateQuiz(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", err)
		return
	}
	quiz, err := h.svc.GenerateQuiz(c.Request.Context(), lessonID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, quiz)
}

// POST /api/ai/generate-course
func (h *AIHandler) GenerateCourse(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req ai.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sum, err := h.svc.GenerateCourse(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.log.Info("course generated", "course_id", sum.CourseID, "user_id", userID)
	c.JSON(http.StatusCreated, sum)
}

type explainRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
}

// POST /api/ai/explain-code
func (h *AIHandler) ExplainCode(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.svc.ExplainCode(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"explanation": out})
}

// POST /api/ai/courses/:id/ingest
func (h *AIHandler) IngestCourse(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	rep, err := h.svc.IngestCourse(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rep)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}
