package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	apphttp "github.com/yungbote/edugenius-backend/internal/http"
	httpH "github.com/yungbote/edugenius-backend/internal/http/handlers"
	httpMW "github.com/yungbote/edugenius-backend/internal/http/middleware"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const serviceName = "edugenius"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	AI     *httpH.AIHandler
}

func wireHandlers(log *logger.Logger, ai httpH.AIService, db *gorm.DB, rdb goredis.UniversalClient) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		AI:     httpH.NewAIHandler(log, ai),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every authenticated route will answer 401")
	}
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		AIHandler:      handlers.AI,
	})
}
