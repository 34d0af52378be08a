package prompts

// Input carries every field any prompt template may reference.
type Input struct {
	// Chat
	Message    string
	Context    string
	Transcript string

	// Quiz
	LessonTitle   string
	LessonContent string

	// Course
	Topic      string
	Difficulty string
	Audience   string

	// Code
	Code     string
	Language string
}

// Prompt is a rendered template ready for a provider call.
type Prompt struct {
	Name       string
	Version    int
	SchemaName string
	Schema     map[string]any
	System     string
	User       string
}
