package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

func TestTranslateFilter(t *testing.T) {
	got, err := translateFilter("ns", map[string]any{
		"course_id": "c1",
		"order":     map[string]any{"$gte": 2, "$lt": 5},
		"lesson_id": map[string]any{"$nin": []any{"l9"}},
		"title":     map[string]any{"$exists": true},
		"$or": []any{
			map[string]any{"kind": "lesson"},
			map[string]any{"kind": map[string]any{"$ne": "quiz"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []condition{
		match(payloadNamespaceKey, "ns"),
		{"should": []condition{
			{"must": []condition{match("kind", "lesson")}},
			{"must_not": []condition{match("kind", "quiz")}},
		}},
		match("course_id", "c1"),
		{"key": "order", "range": map[string]any{"gte": 2}},
		{"key": "order", "range": map[string]any{"lt": 5}},
	}, got["must"])
	assert.Equal(t, []condition{
		{"key": "lesson_id", "match": map[string]any{"any": []any{"l9"}}},
		{"is_empty": map[string]any{"key": "title"}},
	}, got["must_not"])
}

func TestTranslateFilterEmptyScopesNamespaceOnly(t *testing.T) {
	got, err := translateFilter("ns", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"must": []condition{match(payloadNamespaceKey, "ns")}}, got)
}

func TestTranslateFilterRejects(t *testing.T) {
	for name, f := range map[string]map[string]any{
		"unknown op":    {"a": map[string]any{"$regex": "x"}},
		"top-level not": {"$not": map[string]any{"a": 1}},
		"empty in":      {"a": map[string]any{"$in": []any{}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := translateFilter("ns", f)
			assert.ErrorIs(t, err, pinecone.ErrUnsupportedFilter)
		})
	}
}
