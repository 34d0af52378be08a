package prompts

type PromptName string

const (
	PromptTutorChat      PromptName = "tutor_chat"
	PromptQueryExpansion PromptName = "query_expansion"
	PromptLessonQuiz     PromptName = "lesson_quiz"
	PromptCourseOutline  PromptName = "course_outline"
	PromptExplainCode    PromptName = "explain_code"
)

func Names() []PromptName {
	return []PromptName{
		PromptTutorChat,
		PromptQueryExpansion,
		PromptLessonQuiz,
		PromptCourseOutline,
		PromptExplainCode,
	}
}
