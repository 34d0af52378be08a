package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/data/db"
	apphttp "github.com/yungbote/edugenius-backend/internal/http"
	"github.com/yungbote/edugenius-backend/internal/modules/ai"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Clients Clients
	Metrics *observability.Metrics
	AI      *ai.Usecases
	Server  *apphttp.Server

	dbSvc        *db.Service
	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

// New connects every dependency and builds the HTTP server. The vector
// index is created when missing; a mismatched index fails startup.
func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	log, cfg := a.Log, a.Cfg
	log.Info("Loading environment variables...", "env", cfg.Env, "version", cfg.Version)

	a.shutdownOtel = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
	})
	a.Metrics = observability.Init(log)

	svc, err := openDatabase(log, cfg)
	if err != nil {
		return err
	}
	a.dbSvc = svc
	a.DB = svc.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return err
	}
	a.Clients = clients

	gens, emb, err := wireProviders(ctx, log, cfg, clients.Redis, a.Metrics)
	if err != nil {
		return fmt.Errorf("wire providers: %w", err)
	}
	vec, err := resolveVectorStore(log, cfg, a.Metrics)
	if err != nil {
		return err
	}

	a.AI = ai.New(ai.UsecasesDeps{
		DB:         a.DB,
		Log:        log,
		Repos:      wireRepos(a.DB, log),
		Generators: gens,
		Embedder:   emb,
		Vec:        vec,
		Prompts:    prompts.FromFile(cfg.PromptsYAML, log),
		Metrics:    a.Metrics,
		Config: ai.Config{
			Dimension:       cfg.EmbedDim,
			TopK:            cfg.TopK,
			ChunkWindow:     cfg.ChunkWindow,
			ChunkOverlap:    cfg.ChunkOverlap,
			Concurrency:     cfg.IngestConcurrent,
			IngestGenerated: cfg.IngestGenerated,
		},
	})
	bootCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := a.AI.EnsureIndex(bootCtx); err != nil {
		return fmt.Errorf("ensure vector index: %w", err)
	}

	handlers := wireHandlers(log, a.AI, a.DB, clients.Redis)
	middleware := wireMiddleware(log, cfg)
	a.Server = wireServer(log, cfg, a.Metrics, handlers, middleware)
	return nil
}

func openDatabase(log *logger.Logger, cfg Config) (*db.Service, error) {
	svc, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return svc, nil
}

// Migrate applies the schema and exits without touching providers.
func Migrate(ctx context.Context) error {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	svc, err := openDatabase(log, cfg)
	if err != nil {
		return err
	}
	log.Info("schema up to date", "driver", cfg.DB.Driver)
	return svc.Close()
}

// Start launches background collectors. It is a no-op when already started.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Start(ctx)
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.AI != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := a.AI.Close(ctx); err != nil {
			a.Log.Warn("background ingestion did not finish", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.dbSvc != nil {
		if err := a.dbSvc.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
