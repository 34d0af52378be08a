// Package index is the vector index used by retrieval and ingestion. It
// classifies backend failures into transient and contract errors.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

// CourseNamespace holds every lesson chunk.
const CourseNamespace = "courses"

// ErrContract marks caller mistakes the backend rejected: dimension
// mismatches and unsupported filters.
var ErrContract = errors.New("vector index contract violation")

type Error struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string { return fmt.Sprintf("vector index %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Entry is one stored vector.
type Entry = pinecone.Vector

type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Text returns a string metadata field or "".
func (m Match) Text(key string) string {
	if s, ok := m.Metadata[key].(string); ok {
		return s
	}
	return ""
}

type Index struct {
	store pinecone.VectorStore
	log   *logger.Logger
}

func New(store pinecone.VectorStore, log *logger.Logger) *Index {
	if log == nil {
		log = logger.Nop()
	}
	return &Index{store: store, log: log.With("service", "VectorIndex")}
}

// EnsureIndex creates the backing index for dimension if needed. Idempotent.
func (x *Index) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &Error{Op: "ensure_index", Err: fmt.Errorf("%w: dimension %d", ErrContract, dimension)}
	}
	return classify("ensure_index", x.store.EnsureIndex(ctx, dimension))
}

// Upsert writes entries into namespace, replacing any with the same id.
func (x *Index) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := x.store.Upsert(ctx, namespace, entries); err != nil {
		x.log.Warn("upsert failed", "namespace", namespace, "count", len(entries), "error", err)
		return classify("upsert", err)
	}
	return nil
}

// Query returns at most topK matches, best first.
func (x *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	raw, err := x.store.QueryMatches(ctx, namespace, vector, topK, filter)
	if err != nil {
		return nil, classify("query", err)
	}
	out := make([]Match, 0, min(len(raw), topK))
	for _, m := range raw {
		if len(out) == topK {
			break
		}
		out = append(out, Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return out, nil
}

// ListIDs returns up to limit ids in namespace that match filter. The query
// vector only has to be non-zero; the filter does the selecting.
func (x *Index) ListIDs(ctx context.Context, namespace string, dimension, limit int, filter map[string]any) ([]string, error) {
	if dimension <= 0 {
		return nil, &Error{Op: "list_ids", Err: fmt.Errorf("%w: dimension %d", ErrContract, dimension)}
	}
	if limit <= 0 {
		return nil, nil
	}
	probe := make([]float32, dimension)
	probe[0] = 1
	ids, err := x.store.QueryIDs(ctx, namespace, probe, limit, filter)
	if err != nil {
		return nil, classify("list_ids", err)
	}
	return ids, nil
}

// Delete removes ids from namespace. Unknown ids are ignored.
func (x *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return classify("delete", x.store.DeleteIDs(ctx, namespace, ids))
}

// CourseFilter restricts a query to one course.
func CourseFilter(courseID string) map[string]any {
	return map[string]any{"course_id": map[string]any{"$eq": courseID}}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pinecone.ErrDimensionMismatch) || errors.Is(err, pinecone.ErrUnsupportedFilter) {
		return &Error{Op: op, Err: errors.Join(ErrContract, err)}
	}
	return &Error{Op: op, Retryable: httpx.IsRetryableError(err), Err: err}
}
