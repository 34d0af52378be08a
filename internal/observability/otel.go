package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// exportSettings is the OTEL_* environment as read at startup.
type exportSettings struct {
	enabled  bool
	ratio    float64
	endpoint string
	headers  map[string]string
	insecure bool
	// stdout prints spans when no endpoint is set; off by default so a
	// misconfigured deployment does not flood its logs.
	stdout bool
}

func exportSettingsFromEnv() exportSettings {
	return exportSettings{
		enabled:  envutil.Bool("OTEL_ENABLED", false),
		ratio:    min(max(envutil.Float("OTEL_SAMPLER_RATIO", 0.1), 0), 1),
		endpoint: envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		headers:  parseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		insecure: envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		stdout:   envutil.Bool("OTEL_STDOUT", false),
	}
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider and W3C propagators once. It
// returns the provider's shutdown func, or nil when tracing is disabled.
// Spans are still created without an exporter so trace ids reach the logs.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		set := exportSettingsFromEnv()
		if !set.enabled {
			return
		}
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = "edugenius"
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(cfg.Version),
			attribute.String("deployment.environment", cfg.Environment),
		))
		if err != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(set.ratio))),
			sdktrace.WithResource(res),
		}
		exp, err := set.exporter(ctx)
		switch {
		case err != nil:
			log.Warn("otel exporter init failed (continuing)", "error", err)
		case exp != nil:
			opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized", "service", name, "endpoint", set.endpoint, "sample_ratio", set.ratio)
	})
	return otelShutdown
}

// exporter picks OTLP/HTTP when an endpoint is configured, stdout when asked,
// and nothing otherwise.
func (s exportSettings) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch {
	case s.endpoint != "":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(s.headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(s.headers))
		}
		return otlptracehttp.New(ctx, opts...)
	case s.stdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	return nil, nil
}

// parseHeaders reads "k1=v1,k2=v2"; malformed pairs are skipped.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for part := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if ok && k != "" && v != "" {
			headers[k] = v
		}
	}
	return headers
}
