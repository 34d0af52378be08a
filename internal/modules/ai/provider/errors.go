package provider

import (
	"fmt"
	"strings"
)

// EmbeddingError wraps a failed embedding batch. Partial holds vectors that
// were produced before the failure, if any.
type EmbeddingError struct {
	Provider  string
	Transient bool
	Partial   [][]float32
	Err       error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Provider, e.Err)
}
func (e *EmbeddingError) Unwrap() error   { return e.Err }
func (e *EmbeddingError) Retryable() bool { return e.Transient }

type GenerationError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", e.Provider, e.Err)
}
func (e *GenerationError) Unwrap() error   { return e.Err }
func (e *GenerationError) Retryable() bool { return e.Transient }

// ParseFailure means the model answered but the answer was not a usable JSON
// object. Raw is the untouched model output.
type ParseFailure struct {
	Raw        string
	Violations []string
	Err        error
}

func (e *ParseFailure) Error() string {
	if len(e.Violations) > 0 {
		return "model output violates schema: " + strings.Join(e.Violations, "; ")
	}
	if e.Err != nil {
		return "model output is not valid JSON: " + e.Err.Error()
	}
	return "model output is not valid JSON"
}
func (e *ParseFailure) Unwrap() error { return e.Err }
