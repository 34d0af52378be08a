package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/yungbote/edugenius-backend/internal/platform/envutil"
)

type Config struct {
	URL    string
	APIKey string
	// Collection holds every course's points; namespaces are a payload field.
	Collection      string
	NamespacePrefix string
	VectorDim       int
	Timeout         time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorMissingVectorDim  ConfigErrorCode = "missing_vector_dim"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; want an absolute URL such as http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorMissingVectorDim:
		return "QDRANT_VECTOR_DIM or EMBED_DIM is required"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid vector dimension %q; want a positive integer", e.Value)
	}
	return "invalid qdrant config"
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// ResolveConfigFromEnv reads QDRANT_* settings. The vector size falls back to
// EMBED_DIM so one setting drives both the embedder and the collection.
func ResolveConfigFromEnv() (Config, error) {
	rawDim := envutil.String("QDRANT_VECTOR_DIM", envutil.String("EMBED_DIM", ""))
	cfg := Config{
		URL:             envutil.String("QDRANT_URL", ""),
		APIKey:          envutil.String("QDRANT_API_KEY", ""),
		Collection:      envutil.String("QDRANT_COLLECTION", "edugenius-courses"),
		NamespacePrefix: envutil.String("QDRANT_NAMESPACE_PREFIX", ""),
		Timeout:         envutil.Seconds("QDRANT_TIMEOUT_SECONDS", 10*time.Second),
	}
	if rawDim == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingVectorDim}
	}
	dim, err := strconv.Atoi(rawDim)
	if err != nil {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: rawDim, Cause: err}
	}
	cfg.VectorDim = dim
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: c.URL, Cause: err}
	}
	if c.Collection == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if c.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(c.VectorDim)}
	}
	return nil
}
