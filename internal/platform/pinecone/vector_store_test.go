package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type fakeClient struct {
	described  int
	exists     bool
	dimension  int
	created    []CreateIndexRequest
	upserts    []UpsertRequest
	queries    []QueryRequest
	deletes    []DeleteRequest
	queryResp  *QueryResponse
	createErr  error
	upsertHost string

	existsOnFailure bool
}

func (f *fakeClient) ListIndexes(ctx context.Context) ([]IndexDescription, error) {
	if !f.exists {
		return nil, nil
	}
	return []IndexDescription{{Name: "edugenius-index", Dimension: f.dimension}}, nil
}

func (f *fakeClient) DescribeIndex(ctx context.Context, name string) (*IndexDescription, error) {
	f.described++
	if !f.exists {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Body: "not found"}
	}
	d := &IndexDescription{Name: name, Dimension: f.dimension, Host: "edugenius-index-abc.svc.pinecone.io"}
	d.Status.Ready = true
	return d, nil
}

func (f *fakeClient) CreateIndex(ctx context.Context, req CreateIndexRequest) (*IndexDescription, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		if f.existsOnFailure {
			f.exists = true
			f.dimension = req.Dimension
		}
		return nil, f.createErr
	}
	f.exists = true
	f.dimension = req.Dimension
	return &IndexDescription{Name: req.Name, Dimension: req.Dimension}, nil
}

func (f *fakeClient) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	f.upsertHost = host
	f.upserts = append(f.upserts, req)
	return &UpsertResponse{UpsertedCount: len(req.Vectors)}, nil
}

func (f *fakeClient) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	f.queries = append(f.queries, req)
	if f.queryResp == nil {
		return &QueryResponse{}, nil
	}
	return f.queryResp, nil
}

func (f *fakeClient) DeleteVectors(ctx context.Context, host string, req DeleteRequest) (map[string]any, error) {
	f.deletes = append(f.deletes, req)
	return map[string]any{}, nil
}

func newTestStore(t *testing.T, fc *fakeClient) *vectorStore {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	vs, err := NewVectorStore(log, fc, StoreConfig{IndexName: "edugenius-index", ReadyTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	return vs.(*vectorStore)
}

func TestEnsureIndexCreatesMissingIndexOnce(t *testing.T) {
	fc := &fakeClient{}
	s := newTestStore(t, fc)

	if err := s.EnsureIndex(context.Background(), 768); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if err := s.EnsureIndex(context.Background(), 768); err != nil {
		t.Fatalf("EnsureIndex (second): %v", err)
	}
	if len(fc.created) != 1 {
		t.Fatalf("created: want=1 got=%d", len(fc.created))
	}
	req := fc.created[0]
	if req.Dimension != 768 || req.Metric != "cosine" {
		t.Fatalf("create request: dim=%d metric=%q", req.Dimension, req.Metric)
	}
	if req.Spec.Serverless.Region != "us-east-1" || req.Spec.Serverless.Cloud != "aws" {
		t.Fatalf("serverless spec: got=%+v", req.Spec.Serverless)
	}
	if s.indexHost == "" {
		t.Fatalf("index host not resolved")
	}
}

func TestEnsureIndexConflictIsSuccess(t *testing.T) {
	fc := &fakeClient{
		createErr:       &HTTPError{StatusCode: http.StatusConflict, Body: "exists"},
		existsOnFailure: true,
	}
	s := newTestStore(t, fc)
	if err := s.EnsureIndex(context.Background(), 768); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if len(fc.created) != 1 {
		t.Fatalf("created: want=1 got=%d", len(fc.created))
	}
}

func TestEnsureIndexDimensionMismatch(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 1536}
	s := newTestStore(t, fc)
	err := s.EnsureIndex(context.Background(), 768)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err: want ErrDimensionMismatch got=%v", err)
	}
}

func TestQueryMatchesIncludesMetadataAndNamespace(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 3, queryResp: &QueryResponse{Matches: []QueryMatch{
		{ID: "course_1_lesson_2_chunk_0", Score: 0.91, Metadata: map[string]any{"title": "Intro", "text": "hello"}},
		{ID: "", Score: 0.5},
	}}}
	s := newTestStore(t, fc)
	if err := s.EnsureIndex(context.Background(), 3); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	matches, err := s.QueryMatches(context.Background(), "courses", []float32{1, 0, 0}, 5, map[string]any{
		"course_id": map[string]any{"$eq": "1"},
	})
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches: want=1 got=%d", len(matches))
	}
	if matches[0].Metadata["title"] != "Intro" {
		t.Fatalf("metadata: got=%v", matches[0].Metadata)
	}
	q := fc.queries[0]
	if q.Namespace != "courses" || !q.IncludeMetadata || q.TopK != 5 {
		t.Fatalf("query request: %+v", q)
	}
}

func TestQueryMatchesRejectsWrongDimension(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 3}
	s := newTestStore(t, fc)
	if err := s.EnsureIndex(context.Background(), 3); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	_, err := s.QueryMatches(context.Background(), "courses", []float32{1, 0}, 5, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err: want ErrDimensionMismatch got=%v", err)
	}
	if len(fc.queries) != 0 {
		t.Fatalf("query should not be sent")
	}
}

func TestQueryMatchesRejectsUnsupportedFilter(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 3}
	s := newTestStore(t, fc)
	_, err := s.QueryMatches(context.Background(), "courses", []float32{1, 0, 0}, 5, map[string]any{
		"course_id": map[string]any{"$regex": "c.*"},
	})
	if !errors.Is(err, ErrUnsupportedFilter) {
		t.Fatalf("err: want ErrUnsupportedFilter got=%v", err)
	}
}

func TestUpsertResolvesHostLazilyAndPrefixesNamespace(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 2}
	log, _ := logger.New("test")
	vs, err := NewVectorStore(log, fc, StoreConfig{IndexName: "edugenius-index", NamespacePrefix: "dev"})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	err = vs.Upsert(context.Background(), "courses", []Vector{{ID: "a", Values: []float32{1, 2}}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if fc.upsertHost == "" {
		t.Fatalf("host not resolved")
	}
	if fc.upserts[0].Namespace != "dev:courses" {
		t.Fatalf("namespace: want=%q got=%q", "dev:courses", fc.upserts[0].Namespace)
	}
}

func TestUpsertSplitsLargeWritesIntoBatches(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 2}
	s := newTestStore(t, fc)

	vectors := make([]Vector, 2500)
	for i := range vectors {
		vectors[i] = Vector{ID: fmt.Sprintf("v%d", i), Values: []float32{1, 2}}
	}
	if err := s.Upsert(context.Background(), "courses", vectors); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(fc.upserts) != 25 {
		t.Fatalf("requests: want=25 got=%d", len(fc.upserts))
	}
	var sent int
	for i, req := range fc.upserts {
		if len(req.Vectors) > upsertBatchSize {
			t.Fatalf("request %d: %d vectors over batch size", i, len(req.Vectors))
		}
		if req.Vectors[0].ID != vectors[sent].ID {
			t.Fatalf("request %d: first id want=%s got=%s", i, vectors[sent].ID, req.Vectors[0].ID)
		}
		sent += len(req.Vectors)
	}
	if sent != len(vectors) {
		t.Fatalf("vectors sent: want=%d got=%d", len(vectors), sent)
	}
}

func TestUpsertValidatesEveryVectorBeforeSending(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 2}
	s := newTestStore(t, fc)

	vectors := make([]Vector, 250)
	for i := range vectors {
		vectors[i] = Vector{ID: fmt.Sprintf("v%d", i), Values: []float32{1, 2}}
	}
	vectors[240].Values = []float32{1}
	err := s.Upsert(context.Background(), "courses", vectors)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err: want ErrDimensionMismatch got=%v", err)
	}
	if len(fc.upserts) != 0 {
		t.Fatalf("requests: want=0 got=%d", len(fc.upserts))
	}
}

func TestQueryIDsSkipsMetadata(t *testing.T) {
	fc := &fakeClient{exists: true, dimension: 3, queryResp: &QueryResponse{Matches: []QueryMatch{
		{ID: "course_1_lesson_2_chunk_0", Score: 0.4},
		{ID: "course_1_lesson_3_chunk_0", Score: 0.3},
	}}}
	s := newTestStore(t, fc)

	ids, err := s.QueryIDs(context.Background(), "courses", []float32{1, 0, 0}, 10000, map[string]any{"course_id": "1"})
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "course_1_lesson_2_chunk_0" {
		t.Fatalf("ids: got=%v", ids)
	}
	q := fc.queries[0]
	if q.IncludeMetadata || q.TopK != 10000 {
		t.Fatalf("query request: %+v", q)
	}
}
