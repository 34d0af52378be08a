package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/modules/ai"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/generation"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/retrieval"
	"github.com/yungbote/edugenius-backend/internal/platform/apierr"
	"github.com/yungbote/edugenius-backend/internal/platform/ctxutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type fakeAI struct {
	chatIn   ai.ChatInput
	chatOut  *ai.ChatAnswer
	quizID   uuid.UUID
	courseIn ai.CourseRequest
	code     [2]string
	ingestID uuid.UUID
	err      error
}

func (f *fakeAI) Chat(_ context.Context, in ai.ChatInput) (*ai.ChatAnswer, error) {
	f.chatIn = in
	return f.chatOut, f.err
}

func (f *fakeAI) GenerateQuiz(_ context.Context, lessonID uuid.UUID) (*ai.QuizDraft, error) {
	f.quizID = lessonID
	if f.err != nil {
		return nil, f.err
	}
	return &ai.QuizDraft{Title: "Quiz", Questions: []generation.QuizQuestion{{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}}}, nil
}

func (f *fakeAI) GenerateCourse(_ context.Context, _ uuid.UUID, req ai.CourseRequest) (*ai.CourseSummary, error) {
	f.courseIn = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.CourseSummary{CourseID: uuid.New(), Title: "Go", Message: "Course 'Go' generated successfully with 3 modules."}, nil
}

func (f *fakeAI) ExplainCode(_ context.Context, code, language string) (string, error) {
	f.code = [2]string{code, language}
	return "it prints", f.err
}

func (f *fakeAI) IngestCourse(_ context.Context, courseID uuid.UUID) (*ai.IngestReport, error) {
	f.ingestID = courseID
	if f.err != nil {
		return nil, f.err
	}
	return &ai.IngestReport{CourseID: courseID, Lessons: 2, Vectors: 4}, nil
}

func newTestRouter(svc AIService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAIHandler(logger.Nop(), svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID}))
		}
		c.Next()
	})
	r.POST("/api/ai/chat", h.Chat)
	r.POST("/api/ai/generate-quiz", h.GenerateQuiz)
	r.POST("/api/ai/generate-course", h.GenerateCourse)
	r.POST("/api/ai/explain-code", h.ExplainCode)
	r.POST("/api/ai/courses/:id/ingest", h.IngestCourse)
	return r
}

func do(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestChat(t *testing.T) {
	user, course := uuid.New(), uuid.New()
	svc := &fakeAI{chatOut: &ai.ChatAnswer{
		Text:        "Goroutines are cheap threads.",
		ContextUsed: true,
		Sources:     []retrieval.Source{{LessonID: "l1", Title: "Concurrency", Score: 0.91}},
	}}
	r := newTestRouter(svc, user)

	rec, out := do(t, r, "/api/ai/chat", map[string]any{
		"course_id": course.String(),
		"message":   "what is a goroutine?",
		"history":   []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Goroutines are cheap threads.", out["response"])
	assert.Equal(t, true, out["context_used"])
	assert.Len(t, out["sources"], 1)

	assert.Equal(t, user, svc.chatIn.UserID)
	assert.Equal(t, course, svc.chatIn.CourseID)
	require.Len(t, svc.chatIn.History, 2)
	assert.Equal(t, "assistant", svc.chatIn.History[1].Role)
}

func TestChatWithoutContextOmitsSources(t *testing.T) {
	r := newTestRouter(&fakeAI{chatOut: &ai.ChatAnswer{Text: "general answer"}}, uuid.New())
	rec, out := do(t, r, "/api/ai/chat", map[string]any{"course_id": uuid.NewString(), "message": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["context_used"])
	_, has := out["sources"]
	assert.False(t, has)
}

func TestChatRejectsBadInput(t *testing.T) {
	r := newTestRouter(&fakeAI{}, uuid.New())

	rec, out := do(t, r, "/api/ai/chat", map[string]any{"course_id": "12", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_course_id", out["error"].(map[string]any)["code"])

	rec, out = do(t, r, "/api/ai/chat", map[string]any{"course_id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", out["error"].(map[string]any)["code"])
}

func TestUnauthenticated(t *testing.T) {
	r := newTestRouter(&fakeAI{}, uuid.Nil)
	for _, path := range []string{"/api/ai/chat", "/api/ai/generate-quiz", "/api/ai/generate-course", "/api/ai/explain-code", "/api/ai/courses/" + uuid.NewString() + "/ingest"} {
		rec, _ := do(t, r, path, map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestGenerateQuiz(t *testing.T) {
	svc := &fakeAI{}
	r := newTestRouter(svc, uuid.New())
	lesson := uuid.New()

	rec, out := do(t, r, "/api/ai/generate-quiz", map[string]any{"lesson_id": lesson.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lesson, svc.quizID)
	assert.Equal(t, "Quiz", out["title"])
	q := out["questions"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", q["correct_answer"])

	rec, out = do(t, r, "/api/ai/generate-quiz", map[string]any{"lesson_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_lesson_id", out["error"].(map[string]any)["code"])
}

func TestGenerateQuizNotFound(t *testing.T) {
	svc := &fakeAI{err: apierr.New(http.StatusNotFound, "not_found", fmt.Errorf("lesson missing"))}
	r := newTestRouter(svc, uuid.New())

	rec, out := do(t, r, "/api/ai/generate-quiz", map[string]any{"lesson_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := out["error"].(map[string]any)
	assert.Equal(t, "not_found", errBody["code"])
	assert.Equal(t, "lesson missing", errBody["message"])
}

func TestGenerateCourse(t *testing.T) {
	svc := &fakeAI{}
	r := newTestRouter(svc, uuid.New())

	rec, out := do(t, r, "/api/ai/generate-course", map[string]any{"topic": "Go", "difficulty": "advanced", "target_audience": "backend devs"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Go", out["title"])
	assert.NotEmpty(t, out["course_id"])
	assert.Equal(t, ai.CourseRequest{Topic: "Go", Difficulty: "advanced", Audience: "backend devs"}, svc.courseIn)
}

func TestGenerateCourseParseFailureCarriesRaw(t *testing.T) {
	svc := &fakeAI{err: apierr.New(http.StatusBadGateway, "generation_parse_failed", fmt.Errorf("model output is not valid JSON")).
		WithDetails(map[string]any{"raw": "{broken"})}
	r := newTestRouter(svc, uuid.New())

	rec, out := do(t, r, "/api/ai/generate-course", map[string]any{"topic": "Go"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	errBody := out["error"].(map[string]any)
	assert.Equal(t, "generation_parse_failed", errBody["code"])
	assert.Equal(t, "{broken", errBody["details"].(map[string]any)["raw"])
}

func TestExplainCode(t *testing.T) {
	svc := &fakeAI{}
	r := newTestRouter(svc, uuid.New())

	rec, out := do(t, r, "/api/ai/explain-code", map[string]any{"code": "print(1)"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "it prints", out["explanation"])
	assert.Equal(t, [2]string{"print(1)", ""}, svc.code)
}

func TestIngestCourse(t *testing.T) {
	svc := &fakeAI{}
	r := newTestRouter(svc, uuid.New())
	course := uuid.New()

	rec, out := do(t, r, "/api/ai/courses/"+course.String()+"/ingest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, course, svc.ingestID)
	assert.Equal(t, float64(4), out["vectors"])

	rec, _ = do(t, r, "/api/ai/courses/abc/ingest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownErrorIsInternal(t *testing.T) {
	r := newTestRouter(&fakeAI{err: fmt.Errorf("boom")}, uuid.New())
	rec, out := do(t, r, "/api/ai/explain-code", map[string]any{"code": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", out["error"].(map[string]any)["code"])
}
