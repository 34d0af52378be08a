package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/edugenius-backend/internal/http/handlers"
	httpMW "github.com/yungbote/edugenius-backend/internal/http/middleware"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	HealthHandler  *httpH.HealthHandler
	AIHandler      *httpH.AIHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// AI
		if cfg.AIHandler != nil {
			aiGroup := protected.Group("/ai")
			aiGroup.POST("/chat", cfg.AIHandler.Chat)
			aiGroup.POST("/generate-quiz", cfg.AIHandler.GenerateQuiz)
			aiGroup.POST("/generate-course", cfg.AIHandler.GenerateCourse)
			aiGroup.POST("/explain-code", cfg.AIHandler.ExplainCode)
			aiGroup.POST("/courses/:id/ingest", cfg.AIHandler.IngestCourse)
		}
	}

	return r
}
