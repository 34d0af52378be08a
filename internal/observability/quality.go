package observability

import (
	"context"
	"strings"

	"github.com/yungbote/edugenius-backend/internal/platform/ctxutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// ReportSchemaViolations counts structured-output violations per offending
// field and logs a sample. stage names the prompt that produced the output.
func ReportSchemaViolations(ctx context.Context, log *logger.Logger, stage string, violations []string) {
	if len(violations) == 0 {
		return
	}
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	fields := map[string]int{}
	for _, v := range violations {
		field := ViolationField(v)
		fields[field]++
		Current().IncSchemaViolation(stage, field)
	}
	if log == nil {
		return
	}
	sample := violations
	if len(sample) > 3 {
		sample = sample[:3]
	}
	kv := []any{"stage", stage, "fields", fields, "sample", sample}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
	}
	log.Warn("structured output violates schema", kv...)
}

// ViolationField extracts the JSON path from a validator message such as
// "modules.0.lessons: Array must have at least 2 items". Array indexes are
// dropped so all elements share one series.
func ViolationField(violation string) string {
	path, _, ok := strings.Cut(violation, ":")
	if !ok {
		return "root"
	}
	parts := strings.Split(strings.TrimSpace(path), ".")
	out := parts[:0]
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return "root"
	}
	return strings.Join(out, ".")
}
