package observability

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aiOperations *CounterVec
	aiLatency    *HistogramVec

	providerCalls   *CounterVec
	providerLatency *HistogramVec

	embedCache       *CounterVec
	schemaViolations *CounterVec
	ingestedVectors  *CounterVec

	vectorOps       *CounterVec
	vectorLatency   *HistogramVec
	vectorBootstrap *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once. It returns nil when metrics
// are disabled; every method on a nil *Metrics is a no-op.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// New returns an unregistered metric set.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("eg_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("eg_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latencyBuckets),
		apiInflight: NewGauge("eg_api_inflight_requests", "In-flight API requests."),

		aiOperations: NewCounterVec("eg_ai_operations_total", "AI pipeline operations by operation/outcome.", []string{"operation", "outcome"}),
		aiLatency:    NewHistogramVec("eg_ai_operation_duration_seconds", "AI pipeline operation latency in seconds.", []string{"operation", "outcome"}, latencyBuckets),

		providerCalls:   NewCounterVec("eg_provider_calls_total", "Model provider calls by provider/kind/status.", []string{"provider", "kind", "status"}),
		providerLatency: NewHistogramVec("eg_provider_call_duration_seconds", "Model provider call latency in seconds.", []string{"provider", "kind"}, latencyBuckets),

		embedCache:       NewCounterVec("eg_embed_cache_total", "Embedding cache lookups by tier/result.", []string{"tier", "result"}),
		schemaViolations: NewCounterVec("eg_schema_violations_total", "Structured output schema violations by stage/field.", []string{"stage", "field"}),
		ingestedVectors:  NewCounterVec("eg_ingested_vectors_total", "Vectors written by ingestion.", []string{"outcome"}),

		vectorOps:       NewCounterVec("eg_vector_store_operations_total", "Vector store operations by provider/operation/status.", []string{"provider", "operation", "status"}),
		vectorLatency:   NewHistogramVec("eg_vector_store_operation_duration_seconds", "Vector store operation latency in seconds.", []string{"provider", "operation"}, latencyBuckets),
		vectorBootstrap: NewCounterVec("eg_vector_store_bootstrap_total", "Vector store provider bootstraps by provider/status/code.", []string{"provider", "status", "code"}),

		dbStats:   NewGaugeVec("eg_db_pool", "Database pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("eg_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("eg_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aiOperations, m.aiLatency,
		m.providerCalls, m.providerLatency,
		m.embedCache, m.schemaViolations, m.ingestedVectors,
		m.vectorOps, m.vectorLatency, m.vectorBootstrap,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveAIOperation records one facade call. outcome is "ok" or an error code.
func (m *Metrics) ObserveAIOperation(operation, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aiOperations.Inc(operation, outcome)
	m.aiLatency.Observe(dur.Seconds(), operation, outcome)
}

// ObserveProviderCall records one generate or embed call against a model provider.
func (m *Metrics) ObserveProviderCall(provider, kind string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.Inc(provider, kind, statusOf(err))
	m.providerLatency.Observe(dur.Seconds(), provider, kind)
}

func (m *Metrics) AddEmbedCache(tier, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.embedCache.Add(float64(n), tier, result)
}

func (m *Metrics) IncSchemaViolation(stage, field string) {
	if m == nil {
		return
	}
	m.schemaViolations.Inc(stage, field)
}

func (m *Metrics) AddIngestedVectors(n int, err error) {
	if m == nil {
		return
	}
	m.ingestedVectors.Add(float64(n), statusOf(err))
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.Inc(provider, operation, status)
	m.vectorLatency.Observe(dur.Seconds(), provider, operation)
}

func (m *Metrics) ObserveVectorStoreProviderBootstrap(provider, status, code string) {
	if m == nil {
		return
	}
	m.vectorBootstrap.Inc(provider, status, code)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings rdb on an interval. The caller owns rdb.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

