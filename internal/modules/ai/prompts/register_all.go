package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

//go:embed prompts.yaml
var defaultTexts []byte

type promptText struct {
	Version int    `yaml:"version"`
	System  string `yaml:"system"`
	User    string `yaml:"user"`
}

// specs returns the prompt declarations with texts taken from texts.
func specs(texts map[PromptName]promptText) []Spec {
	text := func(n PromptName) promptText { return texts[n] }
	mk := func(n PromptName, schemaName string, schema func() map[string]any, v ...Validator) Spec {
		t := text(n)
		return Spec{
			Name:       n,
			Version:    t.Version,
			SchemaName: schemaName,
			Schema:     schema,
			System:     t.System,
			User:       t.User,
			Validators: v,
		}
	}
	return []Spec{
		mk(PromptTutorChat, "", nil,
			RequireNonEmpty("Transcript", func(in Input) string { return in.Transcript })),
		mk(PromptQueryExpansion, "", nil,
			RequireNonEmpty("Message", func(in Input) string { return in.Message })),
		mk(PromptLessonQuiz, "lesson_quiz", QuizSchema,
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle })),
		mk(PromptCourseOutline, "course_outline", CourseSchema,
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
			RequireNonEmpty("Difficulty", func(in Input) string { return in.Difficulty })),
		mk(PromptExplainCode, "", nil,
			RequireNonEmpty("Code", func(in Input) string { return in.Code }),
			RequireNonEmpty("Language", func(in Input) string { return in.Language })),
	}
}

func parseTexts(data []byte) (map[PromptName]promptText, error) {
	raw := map[string]promptText{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts yaml: %w", err)
	}
	out := make(map[PromptName]promptText, len(raw))
	for k, v := range raw {
		out[PromptName(strings.TrimSpace(k))] = v
	}
	for _, n := range Names() {
		if _, ok := out[n]; !ok {
			return nil, fmt.Errorf("prompts yaml: missing %s", n)
		}
	}
	return out, nil
}

// Load builds a registry from yamlData. Every prompt must be present and compile.
func Load(yamlData []byte) (*Registry, error) {
	texts, err := parseTexts(yamlData)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, s := range specs(texts) {
		if err := r.RegisterSpec(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the registry compiled from the embedded prompts. It panics
// if the embedded file is broken.
func Default() *Registry {
	r, err := Load(defaultTexts)
	if err != nil {
		panic(err)
	}
	return r
}

// FromFile loads prompts from path, falling back to the embedded defaults
// when path is empty or the file is invalid.
func FromFile(path string, log *logger.Logger) *Registry {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err == nil {
		var r *Registry
		if r, err = Load(data); err == nil {
			return r
		}
	}
	if log != nil {
		log.Warn("prompt overrides rejected, using embedded prompts", "path", path, "error", err)
	}
	return Default()
}
