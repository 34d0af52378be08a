package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

func TestDefaultRegistryRendersEveryPrompt(t *testing.T) {
	r := Default()
	in := Input{
		Message:       "recursion?",
		Context:       "Source: Intro\nContent: text",
		Transcript:    "User: hi",
		LessonTitle:   "Loops",
		LessonContent: "for loops repeat",
		Topic:         "Rust",
		Difficulty:    "beginner",
		Code:          "print(1)",
		Language:      "python",
	}
	for _, n := range Names() {
		p, err := r.Build(n, in)
		require.NoError(t, err, n)
		assert.NotEmpty(t, p.User, n)
		assert.Equal(t, 1, p.Version, n)
	}
}

func TestQuizPromptText(t *testing.T) {
	p, err := Default().Build(PromptLessonQuiz, Input{LessonTitle: "Loops", LessonContent: "body"})
	require.NoError(t, err)
	assert.Equal(t, "Generate a challenging 5-question multiple choice quiz based on this lesson: Loops\n\nLesson Content:\nbody", p.User)
	assert.Equal(t, "You are an expert curriculum designer. Create high-quality, pedagogical quizzes.", p.System)
	assert.Equal(t, "lesson_quiz", p.SchemaName)
	assert.Equal(t, 5, p.Schema["properties"].(map[string]any)["questions"].(map[string]any)["minItems"])
}

func TestChatPromptCarriesContext(t *testing.T) {
	p, err := Default().Build(PromptTutorChat, Input{Context: "Source: A\nContent: B", Transcript: "User: why"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.System, "You are the EduGenius Agentic Tutor"))
	assert.True(t, strings.HasSuffix(p.System, "CONTEXT FROM COURSE:\nSource: A\nContent: B"))
	assert.Equal(t, "User: why", p.User)
	assert.Nil(t, p.Schema)
}

func TestCoursePromptOmitsEmptyAudience(t *testing.T) {
	r := Default()
	p, err := r.Build(PromptCourseOutline, Input{Topic: "Go", Difficulty: "advanced"})
	require.NoError(t, err)
	assert.NotContains(t, p.User, "Target audience")
	assert.Contains(t, p.User, "advanced level course about: Go")

	p, err = r.Build(PromptCourseOutline, Input{Topic: "Go", Difficulty: "advanced", Audience: "SREs"})
	require.NoError(t, err)
	assert.Contains(t, p.User, "Target audience: SREs")
}

func TestBuildRunsValidators(t *testing.T) {
	_, err := Default().Build(PromptCourseOutline, Input{Difficulty: "beginner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Topic required")
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, PromptCourseOutline, ie.Prompt)

	_, err = Default().Build("nope", Input{})
	require.Error(t, err)
	assert.False(t, errors.As(err, &ie))
}

func TestFromFileFallsBackOnInvalidOverride(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tutor_chat:\n  version: 1\n  user: \"{{.Nope}}\"\n"), 0o600))
	r := FromFile(bad, logger.Nop())
	_, err := r.Build(PromptQueryExpansion, Input{Message: "x"})
	require.NoError(t, err)

	override := strings.Replace(string(defaultTexts), "Explain this code and suggest improvements:", "Review this code:", 1)
	override = strings.Replace(override, "explain_code:\n  version: 1", "explain_code:\n  version: 2", 1)
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(override), 0o600))
	r = FromFile(good, logger.Nop())
	p, err := r.Build(PromptExplainCode, Input{Code: "x", Language: "go"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.User, "Review this code:"))
	assert.Equal(t, 2, r.Version(PromptExplainCode))
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := MakeTemplate(Spec{Name: "x", Version: 1, User: "{{.Missing}}"})
	require.Error(t, err)
}
