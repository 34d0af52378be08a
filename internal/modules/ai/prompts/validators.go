package prompts

import (
	"fmt"
	"strings"
)

type Validator func(Input) error

// InputError reports prompt input that failed a validator, such as a lesson
// with no title. Template bugs are plain errors.
type InputError struct {
	Prompt PromptName
	Err    error
}

func (e *InputError) Error() string { return fmt.Sprintf("%s: %v", string(e.Prompt), e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if get == nil {
			return fmt.Errorf("validator for %s: getter is nil", field)
		}
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("%s required", field)
		}
		return nil
	}
}
