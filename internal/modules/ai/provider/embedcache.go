package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type EmbedCacheConfig struct {
	// Namespace separates models or dimensions sharing one Redis.
	Namespace string
	Size      int
	TTL       time.Duration
}

// CachedEmbedder serves repeated texts from an in-process LRU and, when a
// Redis client is configured, a shared second tier. Misses are embedded in a
// single batched call to the wrapped Embedder.
type CachedEmbedder struct {
	next Embedder
	l1   *lru.Cache[string, []float32]
	rdb  redis.UniversalClient
	cfg  EmbedCacheConfig
	log  *logger.Logger
	m    *observability.Metrics
}

func NewCachedEmbedder(next Embedder, rdb redis.UniversalClient, cfg EmbedCacheConfig, log *logger.Logger) (*CachedEmbedder, error) {
	if next == nil {
		return nil, errors.New("cached embedder: next is nil")
	}
	if cfg.Size <= 0 {
		cfg.Size = 4096
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Namespace == "" {
		cfg.Namespace = fmt.Sprintf("emb:%d", next.Dimension())
	}
	l1, err := lru.New[string, []float32](cfg.Size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedEmbedder{next: next, l1: l1, rdb: rdb, cfg: cfg, log: log.With("service", "CachedEmbedder"), m: observability.Current()}, nil
}

func (c *CachedEmbedder) Dimension() int { return c.next.Dimension() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []int
	for i, t := range texts {
		keys[i] = c.key(t)
		if v, ok := c.l1.Get(keys[i]); ok {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}
	c.m.AddEmbedCache("lru", "hit", len(texts)-len(missing))
	if c.rdb != nil {
		before := len(missing)
		missing = c.fillFromRedis(ctx, keys, out, missing)
		c.m.AddEmbedCache("redis", "hit", before-len(missing))
	}
	c.m.AddEmbedCache("all", "miss", len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vecs, err := c.next.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, &EmbeddingError{Provider: "cache", Partial: vecs, Err: fmt.Errorf("got %d vectors for %d inputs", len(vecs), len(batch))}
	}

	var pipe redis.Pipeliner
	if c.rdb != nil {
		pipe = c.rdb.Pipeline()
	}
	for j, i := range missing {
		out[i] = vecs[j]
		c.l1.Add(keys[i], vecs[j])
		if pipe != nil {
			pipe.Set(ctx, keys[i], encodeVector(vecs[j]), c.cfg.TTL)
		}
	}
	if pipe != nil {
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Warn("embedding cache write failed", "error", err, "count", len(missing))
		}
	}
	return out, nil
}

func (c *CachedEmbedder) fillFromRedis(ctx context.Context, keys []string, out [][]float32, missing []int) []int {
	if c.rdb == nil || len(missing) == 0 {
		return missing
	}
	lookup := make([]string, len(missing))
	for j, i := range missing {
		lookup[j] = keys[i]
	}
	vals, err := c.rdb.MGet(ctx, lookup...).Result()
	if err != nil {
		c.log.Warn("embedding cache read failed", "error", err)
		return missing
	}
	dim := c.next.Dimension()
	still := missing[:0:0]
	for j, i := range missing {
		s, ok := vals[j].(string)
		if !ok {
			still = append(still, i)
			continue
		}
		v, err := decodeVector([]byte(s))
		if err != nil || len(v) != dim {
			still = append(still, i)
			continue
		}
		out[i] = v
		c.l1.Add(keys[i], v)
	}
	return still
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.cfg.Namespace + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
