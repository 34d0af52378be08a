package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/edugenius-backend/internal/platform/ctxutil"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://api.pinecone.io"
	defaultAPIVersion = "2025-01"
	maxErrorBodyBytes = 1024
)

type Config struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
}

// Vector is one entry written to an index namespace.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type ServerlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type CreateIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless ServerlessSpec `json:"serverless"`
	} `json:"spec"`
}

type IndexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type listIndexesResponse struct {
	Indexes []IndexDescription `json:"indexes"`
}

type UpsertRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	Vectors   []Vector `json:"vectors"`
}

type UpsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type QueryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Matches   []QueryMatch `json:"matches"`
	Namespace string       `json:"namespace"`
}

type DeleteRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	IDs       []string `json:"ids"`
}

// Client talks to the Pinecone control plane (indexes) and data plane (vectors).
type Client interface {
	ListIndexes(ctx context.Context) ([]IndexDescription, error)
	DescribeIndex(ctx context.Context, name string) (*IndexDescription, error)
	CreateIndex(ctx context.Context, req CreateIndexRequest) (*IndexDescription, error)
	UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error)
	Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error)
	DeleteVectors(ctx context.Context, host string, req DeleteRequest) (map[string]any, error)
}

// HTTPError is a non-2xx Pinecone response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pinecone http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// IsNotFound reports a 404 from the control plane.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// IsConflict reports a 409, returned when an index already exists.
func IsConflict(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusConflict
}

type client struct {
	log        *logger.Logger
	apiKey     string
	apiVersion string
	baseURL    string
	http       *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing PINECONE_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:        log.With("client", "PineconeClient"),
		apiKey:     apiKey,
		apiVersion: version,
		baseURL:    baseURL,
		http:       &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) ListIndexes(ctx context.Context) ([]IndexDescription, error) {
	var out listIndexesResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/indexes", nil, &out); err != nil {
		return nil, err
	}
	return out.Indexes, nil
}

func (c *client) DescribeIndex(ctx context.Context, name string) (*IndexDescription, error) {
	var out IndexDescription
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/indexes/"+strings.TrimSpace(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CreateIndex(ctx context.Context, req CreateIndexRequest) (*IndexDescription, error) {
	var out IndexDescription
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/indexes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	var out UpsertResponse
	if err := c.doJSON(ctx, http.MethodPost, dataPlaneURL(host, "/vectors/upsert"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	var out QueryResponse
	if err := c.doJSON(ctx, http.MethodPost, dataPlaneURL(host, "/query"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) (map[string]any, error) {
	out := map[string]any{}
	if err := c.doJSON(ctx, http.MethodPost, dataPlaneURL(host, "/vectors/delete"), req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) doJSON(ctx context.Context, method, url string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("pinecone encode request: %w", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-API-Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pinecone read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("pinecone decode response: %w", err)
	}
	return nil
}

func dataPlaneURL(host, path string) string {
	h := strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		h = "https://" + h
	}
	return h + path
}

func truncate(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
