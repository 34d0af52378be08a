package observability

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Second)
	m.ObserveAIOperation("chat", "ok", time.Second)
	m.ObserveProviderCall("openai", "generate", nil, time.Second)
	m.AddEmbedCache("lru", "hit", 3)
	m.ObserveVectorStoreOperation("memory", "upsert", "success", time.Second)

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/ai/chat", "200", 30*time.Millisecond)
	m.ObserveAIOperation("generate_course", "generation_parse_failed", 2*time.Second)
	m.ObserveProviderCall("gemini", "embed", errors.New("boom"), time.Second)
	m.AddIngestedVectors(7, nil)
	m.ApiInflightInc()
	m.ApiInflightInc()
	m.ApiInflightDec()

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, `eg_api_requests_total{method="POST",route="/api/ai/chat",status="200"} 1.000000`)
	assert.Contains(t, out, `eg_api_request_duration_seconds_bucket{method="POST",route="/api/ai/chat",status="200",le="0.05"} 1`)
	assert.Contains(t, out, `eg_ai_operations_total{operation="generate_course",outcome="generation_parse_failed"} 1.000000`)
	assert.Contains(t, out, `eg_provider_calls_total{provider="gemini",kind="embed",status="error"} 1.000000`)
	assert.Contains(t, out, `eg_ingested_vectors_total{outcome="success"} 7.000000`)
	assert.Contains(t, out, "eg_api_inflight_requests 1.000000")
	assert.Contains(t, out, "# TYPE eg_vector_store_operation_duration_seconds histogram")
}

func TestLabelEscaping(t *testing.T) {
	c := NewCounterVec("c", "help", []string{"a", "b"})
	c.Inc("x\"y", "")
	var buf bytes.Buffer
	require.NoError(t, c.WritePrometheus(&buf))
	assert.True(t, strings.Contains(buf.String(), `c{a="x\"y",b="unknown"} 1.000000`), buf.String())
	assert.Equal(t, float64(1), c.Value("x\"y", ""))
}

func TestViolationField(t *testing.T) {
	cases := map[string]string{
		"modules.0.lessons: Array must have at least 2 items": "modules.lessons",
		"questions.3.options.1: Invalid type":                 "questions.options",
		"(root): title is required":                           "(root)",
		"no separator here":                                   "root",
		"0: Invalid type":                                     "root",
	}
	for in, want := range cases {
		assert.Equal(t, want, ViolationField(in), in)
	}
}
