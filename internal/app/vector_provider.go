package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
	"github.com/yungbote/edugenius-backend/internal/platform/memvec"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
	"github.com/yungbote/edugenius-backend/internal/platform/qdrant"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
	resolveQdrantConfig    = qdrant.ResolveConfigFromEnv
)

type VectorProvider string

const (
	VectorProviderPinecone VectorProvider = "pinecone"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderMemory   VectorProvider = "memory"
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingPineconeKey  VectorProviderBootstrapErrorCode = "missing_pinecone_api_key"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingQdrantVector VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore selects the backend named by VECTOR_PROVIDER. The
// returned store is instrumented; the index itself is prepared later by
// EnsureIndex.
func resolveVectorStore(log *logger.Logger, cfg Config, metrics *observability.Metrics) (pinecone.VectorStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	log.Info("Selecting vector store provider", "provider", provider)

	vs, err := openVectorStore(log, provider, cfg)
	if err != nil {
		classified := classifyVectorProviderBootstrapError(provider, err)
		code := vectorProviderBootstrapErrorCode(classified)
		metrics.ObserveVectorStoreProviderBootstrap(provider, "error", string(code))
		log.Error("Vector store provider bootstrap failed", "provider", provider, "error_code", code, "error", classified)
		return nil, classified
	}
	metrics.ObserveVectorStoreProviderBootstrap(provider, "success", "none")
	return instrumentVectorStore(provider, vs, metrics), nil
}

func openVectorStore(log *logger.Logger, provider string, cfg Config) (pinecone.VectorStore, error) {
	switch VectorProvider(provider) {
	case VectorProviderQdrant:
		qcfg, err := resolveQdrantConfig()
		if err != nil {
			return nil, err
		}
		log.Info("Using qdrant", "url", qcfg.URL, "collection", qcfg.Collection, "namespace_prefix", qcfg.NamespacePrefix)
		return newQdrantVectorStore(log, qcfg)

	case VectorProviderPinecone:
		if strings.TrimSpace(cfg.Pinecone.APIKey) == "" {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorMissingPineconeKey,
				Provider: provider,
				Cause:    errors.New("PINECONE_API_KEY is not set"),
			}
		}
		pc, err := newPineconeClient(log, cfg.Pinecone)
		if err != nil {
			return nil, err
		}
		return newPineconeVectorStore(log, pc, cfg.PineconeStore)

	case VectorProviderMemory:
		log.Warn("Using in-memory vector store; vectors are lost on restart")
		return memvec.New(), nil

	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q (want pinecone, qdrant or memory)", provider),
		}
	}
}

var qdrantConfigCodes = map[qdrant.ConfigErrorCode]VectorProviderBootstrapErrorCode{
	qdrant.ConfigErrorMissingURL:        VectorProviderBootstrapErrorMissingQdrantURL,
	qdrant.ConfigErrorInvalidURL:        VectorProviderBootstrapErrorInvalidQdrantURL,
	qdrant.ConfigErrorMissingCollection: VectorProviderBootstrapErrorMissingQdrantColl,
	qdrant.ConfigErrorMissingVectorDim:  VectorProviderBootstrapErrorMissingQdrantVector,
	qdrant.ConfigErrorInvalidVectorDim:  VectorProviderBootstrapErrorInvalidQdrantVector,
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return err
	}
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		if code, ok := qdrantConfigCodes[cfgErr.Code]; ok {
			return wrap(code)
		}
		return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
