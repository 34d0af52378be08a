// Package provider defines the generation and embedding capabilities the AI
// pipeline depends on, with adapters for the supported vendors.
package provider

import "context"

const DefaultDimension = 768

// Message is one conversational turn. Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TextRequest struct {
	System          string
	Messages        []Message
	MaxOutputTokens int
	// JSON biases the provider towards a bare JSON object response.
	JSON bool
}

type Generator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// Embedder maps texts to vectors of a fixed Dimension, preserving order.
// One call is made per batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// UserPrompt is a single-turn request.
func UserPrompt(system, prompt string) TextRequest {
	return TextRequest{System: system, Messages: []Message{{Role: "user", Content: prompt}}}
}
