package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type Clients struct {
	// Redis backs the shared embedding cache tier. Nil when REDIS_URL is unset.
	Redis goredis.UniversalClient
}

var newRedisClient = func(opts *goredis.Options) goredis.UniversalClient {
	return goredis.NewClient(opts)
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	url := strings.TrimSpace(cfg.RedisURL)
	if url == "" {
		log.Info("REDIS_URL not set; embedding cache is process-local")
		return Clients{}, nil
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return Clients{}, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := newRedisClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping: %w", err)
	}
	return Clients{Redis: rdb}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
