package memvec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

func TestQueryMatchesRanksByCosineAndFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureIndex(ctx, 3))
	require.NoError(t, s.Upsert(ctx, "courses", []pinecone.Vector{
		{ID: "a0", Values: []float32{1, 0, 0}, Metadata: map[string]any{"course_id": "a", "title": "Loops"}},
		{ID: "a1", Values: []float32{0.5, 0.5, 0}, Metadata: map[string]any{"course_id": "a", "title": "Maps"}},
		{ID: "b0", Values: []float32{1, 0, 0}, Metadata: map[string]any{"course_id": "b"}},
	}))

	got, err := s.QueryMatches(ctx, "courses", []float32{1, 0, 0}, 5, map[string]any{
		"course_id": map[string]any{"$eq": "a"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a0", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "Loops", got[0].Metadata["title"])
	assert.Equal(t, "a1", got[1].ID)
}

func TestQueryMatchesTopKAndNamespaces(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, "courses", []pinecone.Vector{
		{ID: "x", Values: []float32{1, 0}},
		{ID: "y", Values: []float32{0, 1}},
	}))
	got, err := s.QueryIDs(ctx, "courses", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)

	other, err := s.QueryIDs(ctx, "other", []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpsertOverwritesByID(t *testing.T) {
	ctx := context.Background()
	s := New()
	v := pinecone.Vector{ID: "course_c_lesson_l_chunk_0", Values: []float32{1, 0}, Metadata: map[string]any{"text": "v1"}}
	require.NoError(t, s.Upsert(ctx, "courses", []pinecone.Vector{v}))
	v.Metadata = map[string]any{"text": "v2"}
	require.NoError(t, s.Upsert(ctx, "courses", []pinecone.Vector{v}))
	assert.Equal(t, 1, s.Len("courses"))

	got, err := s.QueryMatches(ctx, "courses", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", got[0].Metadata["text"])
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureIndex(ctx, 3))
	err := s.Upsert(ctx, "courses", []pinecone.Vector{{ID: "bad", Values: []float32{1}}})
	assert.True(t, errors.Is(err, pinecone.ErrDimensionMismatch))
	_, err = s.QueryMatches(ctx, "courses", []float32{1, 2}, 1, nil)
	assert.True(t, errors.Is(err, pinecone.ErrDimensionMismatch))
	assert.True(t, errors.Is(s.EnsureIndex(ctx, 4), pinecone.ErrDimensionMismatch))
}

func TestUnsupportedFilter(t *testing.T) {
	s := New()
	_, err := s.QueryMatches(context.Background(), "courses", []float32{1}, 1, map[string]any{
		"title": map[string]any{"$regex": "^L"},
	})
	assert.True(t, errors.Is(err, pinecone.ErrUnsupportedFilter))
}

func TestFilterOperators(t *testing.T) {
	meta := map[string]any{"course_id": "a", "rank": 3}
	cases := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"bare eq", map[string]any{"course_id": "a"}, true},
		{"ne", map[string]any{"course_id": map[string]any{"$ne": "a"}}, false},
		{"in", map[string]any{"course_id": map[string]any{"$in": []any{"b", "a"}}}, true},
		{"nin", map[string]any{"course_id": map[string]any{"$nin": []any{"a"}}}, false},
		{"gte", map[string]any{"rank": map[string]any{"$gte": 3}}, true},
		{"lt", map[string]any{"rank": map[string]any{"$lt": 3}}, false},
		{"exists false", map[string]any{"missing": map[string]any{"$exists": false}}, true},
		{"or", map[string]any{"$or": []any{
			map[string]any{"course_id": "z"},
			map[string]any{"rank": map[string]any{"$eq": 3}},
		}}, true},
		{"and", map[string]any{"$and": []any{
			map[string]any{"course_id": "a"},
			map[string]any{"rank": map[string]any{"$gt": 5}},
		}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matches(meta, tc.filter))
		})
	}
}
