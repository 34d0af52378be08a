package prompts

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema(minItems, maxItems int) map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    StringSchema(),
		"minItems": minItems,
		"maxItems": maxItems,
	}
}

func QuizQuestionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":       StringSchema(),
			"options":        StringArraySchema(4, 4),
			"correct_answer": StringSchema(),
			"explanation":    StringSchema(),
		},
		"required": []string{"question", "options", "correct_answer", "explanation"},
	}
}

// QuizSchema requires exactly five questions of exactly four options each.
func QuizSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": StringSchema(),
			"questions": map[string]any{
				"type":     "array",
				"items":    QuizQuestionSchema(),
				"minItems": 5,
				"maxItems": 5,
			},
		},
		"required": []string{"title", "questions"},
	}
}

func LessonDraftSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   StringSchema(),
			"content": StringSchema(),
		},
		"required": []string{"title", "content"},
	}
}

func ModuleDraftSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       StringSchema(),
			"description": StringSchema(),
			"lessons": map[string]any{
				"type":     "array",
				"items":    LessonDraftSchema(),
				"minItems": 2,
				"maxItems": 4,
			},
		},
		"required": []string{"title", "lessons"},
	}
}

// CourseSchema requires 3 to 5 modules of 2 to 4 lessons each.
func CourseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       StringSchema(),
			"description": StringSchema(),
			"modules": map[string]any{
				"type":     "array",
				"items":    ModuleDraftSchema(),
				"minItems": 3,
				"maxItems": 5,
			},
		},
		"required": []string{"title", "description", "modules"},
	}
}
