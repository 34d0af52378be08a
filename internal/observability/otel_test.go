package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"x-api-key": "k1", "tenant": "eg"}, parseHeaders(" x-api-key = k1 ,tenant=eg,broken,=v,k="))
	assert.Empty(t, parseHeaders(""))
}

func TestExportSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_STDOUT", "")

	s := exportSettingsFromEnv()
	assert.True(t, s.enabled)
	assert.Equal(t, 1.0, s.ratio)

	exp, err := s.exporter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, exp)

	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	assert.Equal(t, 0.0, exportSettingsFromEnv().ratio)
}
