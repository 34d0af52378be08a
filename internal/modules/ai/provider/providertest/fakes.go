// Package providertest has in-memory Generator and Embedder fakes.
package providertest

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
)

// Reply is one scripted generator answer.
type Reply struct {
	Text string
	Err  error
}

// Generator replays Replies in order and records every request.
type Generator struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []provider.TextRequest
}

func NewGenerator(replies ...Reply) *Generator {
	return &Generator{replies: replies}
}

func (g *Generator) GenerateText(_ context.Context, req provider.TextRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if len(g.replies) == 0 {
		return "", &provider.GenerationError{Provider: "fake", Err: errors.New("no scripted reply")}
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.Text, r.Err
}

func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// Embedder produces deterministic bag-of-words vectors so texts sharing words
// score higher under cosine similarity.
type Embedder struct {
	Dim int
	// Fail, when set, is returned from every Embed call.
	Fail error

	mu      sync.Mutex
	Batches [][]string
}

func NewEmbedder(dim int) *Embedder { return &Embedder{Dim: dim} }

func (e *Embedder) Dimension() int { return e.Dim }

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.Batches = append(e.Batches, append([]string(nil), texts...))
	fail := e.Fail
	e.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vector(t, e.Dim)
	}
	return out, nil
}

func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Batches)
}

// Vector hashes each lower-cased word into a bucket and normalizes.
func Vector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[int(h.Sum32())%dim]++
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
	return v
}
