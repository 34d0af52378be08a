package app

import (
	"strings"
	"time"

	"github.com/yungbote/edugenius-backend/internal/data/db"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/chunker"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/platform/anthropic"
	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
	"github.com/yungbote/edugenius-backend/internal/platform/gemini"
	"github.com/yungbote/edugenius-backend/internal/platform/openai"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

type Config struct {
	LogMode  string
	HTTPAddr string
	Env      string
	Version  string

	JWTSecretKey   string
	AllowedOrigins []string

	DB db.Config

	// AIProvider answers chat and generation; EmbedProvider produces vectors.
	AIProvider    string
	EmbedProvider string
	// TaskProviders overrides AIProvider per task, e.g. "course=anthropic,quiz=gemini".
	TaskProviders map[provider.Task]string
	OpenAI        openai.Config
	Gemini        gemini.Config
	Anthropic     anthropic.Config
	RateLimitRPS  float64
	RateBurst     int

	EmbedDim       int
	VectorProvider string
	Pinecone       pinecone.Config
	PineconeStore  pinecone.StoreConfig
	RedisURL       string
	EmbedCacheSize int
	EmbedCacheTTL  time.Duration

	ChunkWindow      int
	ChunkOverlap     int
	TopK             int
	IngestConcurrent int
	IngestGenerated  bool
	PromptsYAML      string
}

func LoadConfig() Config {
	return Config{
		LogMode:  envutil.String("LOG_MODE", "development"),
		HTTPAddr: envutil.String("HTTP_ADDR", ":8080"),
		Env:      envutil.String("APP_ENV", "development"),
		Version:  envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		DB: db.ConfigFromEnv(),

		AIProvider:    strings.ToLower(envutil.String("AI_PROVIDER", "gemini")),
		EmbedProvider: strings.ToLower(envutil.String("EMBED_PROVIDER", "gemini")),
		TaskProviders: parseTaskProviders(envutil.String("AI_TASK_PROVIDERS", "")),
		OpenAI:        openai.ConfigFromEnv(),
		Gemini:        gemini.ConfigFromEnv(),
		Anthropic:     anthropic.ConfigFromEnv(),
		RateLimitRPS:  envutil.Float("AI_RATE_LIMIT_RPS", 0),
		RateBurst:     envutil.Int("AI_RATE_LIMIT_BURST", 1),

		EmbedDim:       envutil.Int("EMBED_DIM", provider.DefaultDimension),
		VectorProvider: strings.ToLower(envutil.String("VECTOR_PROVIDER", "pinecone")),
		Pinecone: pinecone.Config{
			APIKey:     envutil.String("PINECONE_API_KEY", ""),
			APIVersion: envutil.String("PINECONE_API_VERSION", ""),
			BaseURL:    envutil.String("PINECONE_BASE_URL", ""),
			Timeout:    envutil.Seconds("PINECONE_TIMEOUT_SECONDS", 30*time.Second),
		},
		PineconeStore: pinecone.StoreConfig{
			IndexName:       envutil.String("PINECONE_INDEX_NAME", "edugenius-courses"),
			IndexHost:       envutil.String("PINECONE_INDEX_HOST", ""),
			NamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", ""),
			Cloud:           envutil.String("PINECONE_CLOUD", "aws"),
			Region:          envutil.String("PINECONE_REGION", "us-east-1"),
		},
		RedisURL:       envutil.String("REDIS_URL", ""),
		EmbedCacheSize: envutil.Int("EMBED_CACHE_SIZE", 4096),
		EmbedCacheTTL:  envutil.Seconds("EMBED_CACHE_TTL_SECONDS", 24*time.Hour),

		ChunkWindow:      envutil.Int("CHUNK_WINDOW", chunker.DefaultWindow),
		ChunkOverlap:     envutil.Int("CHUNK_OVERLAP", chunker.DefaultOverlap),
		TopK:             envutil.Int("RAG_TOP_K", 5),
		IngestConcurrent: envutil.Int("INGEST_CONCURRENCY", 4),
		IngestGenerated:  envutil.Bool("INGEST_GENERATED_COURSES", true),
		PromptsYAML:      envutil.String("PROMPTS_YAML", ""),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTaskProviders(raw string) map[provider.Task]string {
	out := map[provider.Task]string{}
	for _, pair := range splitList(raw) {
		task, name, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		task = strings.ToLower(strings.TrimSpace(task))
		name = strings.ToLower(strings.TrimSpace(name))
		if task != "" && name != "" {
			out[provider.Task(task)] = name
		}
	}
	return out
}
