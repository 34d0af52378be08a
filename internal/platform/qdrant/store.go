package qdrant

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

const (
	payloadNamespaceKey = "_eg_namespace"
	payloadVectorIDKey  = "_eg_vector_id"

	upsertBatchSize = 128
	maxBodyBytes    = 4 << 20
)

// pointSpace seeds the deterministic point ids; Qdrant only accepts uuids or
// unsigned integers, so "<namespace>|<vector id>" is hashed into a uuid.
var pointSpace = uuid.MustParse("6a4c7d1e-93b2-4f0a-8e51-2d7f0c9b3a64")

// Store implements pinecone.VectorStore over the Qdrant REST API. All
// namespaces share one cosine collection and are told apart by payload.
type Store struct {
	log    *logger.Logger
	cfg    Config
	base   string
	http   *http.Client
	policy httpx.Policy
}

func NewVectorStore(log *logger.Logger, cfg Config) (pinecone.VectorStore, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	s := &Store{
		log:    log.With("service", "QdrantVectorStore", "collection", cfg.Collection),
		cfg:    cfg,
		base:   strings.TrimRight(cfg.URL, "/"),
		http:   &http.Client{},
		policy: httpx.DefaultPolicy(cfg.Timeout),
	}
	s.log.Info("Qdrant vector store selected", "url", s.base, "vector_dim", cfg.VectorDim)
	return s, nil
}

type collectionInfo struct {
	Config struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

// EnsureIndex creates the collection when missing. An existing collection
// must be cosine with the requested size.
func (s *Store) EnsureIndex(ctx context.Context, dimension int) error {
	const op = "ensure_index"
	if dimension != s.cfg.VectorDim {
		return &Error{Op: op, Msg: fmt.Sprintf("embedding dimension %d, collection configured for %d", dimension, s.cfg.VectorDim), Err: pinecone.ErrDimensionMismatch}
	}
	var info collectionInfo
	err := s.do(ctx, op, http.MethodGet, s.collection(""), nil, &info)
	var qe *Error
	switch {
	case err == nil:
		vec := info.Config.Params.Vectors
		if vec.Size != dimension {
			return &Error{Op: op, Msg: fmt.Sprintf("collection has size %d, want %d", vec.Size, dimension), Err: pinecone.ErrDimensionMismatch}
		}
		if !strings.EqualFold(vec.Distance, "cosine") {
			return &Error{Op: op, Msg: fmt.Sprintf("collection uses %s distance, want Cosine", vec.Distance)}
		}
		return nil
	case errors.As(err, &qe) && qe.Status == http.StatusNotFound:
	default:
		return err
	}

	s.log.Info("Creating qdrant collection", "vector_dim", dimension)
	create := map[string]any{"vectors": map[string]any{"size": dimension, "distance": "Cosine"}}
	if err := s.do(ctx, op, http.MethodPut, s.collection(""), create, nil); err != nil {
		if !errors.As(err, &qe) || qe.Status != http.StatusConflict {
			return err
		}
	}
	for _, field := range []string{payloadNamespaceKey, "course_id"} {
		idx := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, op, http.MethodPut, s.collection("/index?wait=true"), idx, nil); err != nil {
			s.log.Warn("payload index creation failed", "field", field, "error", err)
		}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	const op = "upsert"
	ns := s.namespace(namespace)
	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		if v.ID == "" {
			return &Error{Op: op, Msg: "vector id is required"}
		}
		if len(v.Values) != s.cfg.VectorDim {
			return &Error{Op: op, Msg: fmt.Sprintf("vector %q has %d values, want %d", v.ID, len(v.Values), s.cfg.VectorDim), Err: pinecone.ErrDimensionMismatch}
		}
		payload := maps.Clone(v.Metadata)
		if payload == nil {
			payload = map[string]any{}
		}
		payload[payloadNamespaceKey] = ns
		payload[payloadVectorIDKey] = v.ID
		points = append(points, map[string]any{
			"id":      pointID(ns, v.ID),
			"vector":  v.Values,
			"payload": payload,
		})
	}
	for batch := range slices.Chunk(points, upsertBatchSize) {
		if err := s.do(ctx, op, http.MethodPut, s.collection("/points?wait=true"), map[string]any{"points": batch}, nil); err != nil {
			return err
		}
	}
	return nil
}

type scoredPoint struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (s *Store) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	const op = "query"
	if len(q) != s.cfg.VectorDim {
		return nil, &Error{Op: op, Msg: fmt.Sprintf("query has %d values, want %d", len(q), s.cfg.VectorDim), Err: pinecone.ErrDimensionMismatch}
	}
	if topK <= 0 {
		topK = 10
	}
	ns := s.namespace(namespace)
	qf, err := translateFilter(ns, filter)
	if err != nil {
		s.log.Warn("qdrant filter rejected", "namespace", ns, "error", err)
		return nil, err
	}
	req := map[string]any{
		"vector":       q,
		"limit":        topK,
		"with_payload": true,
		"filter":       qf,
	}
	var hits []scoredPoint
	if err := s.do(ctx, op, http.MethodPost, s.collection("/points/search"), req, &hits); err != nil {
		return nil, err
	}
	out := make([]pinecone.VectorMatch, 0, len(hits))
	for _, h := range hits {
		id, _ := h.Payload[payloadVectorIDKey].(string)
		if id == "" {
			continue
		}
		meta := maps.Clone(h.Payload)
		delete(meta, payloadNamespaceKey)
		delete(meta, payloadVectorIDKey)
		out = append(out, pinecone.VectorMatch{ID: id, Score: h.Score, Metadata: meta})
	}
	slices.SortStableFunc(out, func(a, b pinecone.VectorMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error) {
	matches, err := s.QueryMatches(ctx, namespace, q, topK, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids, nil
}

func (s *Store) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	ns := s.namespace(namespace)
	points := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			points = append(points, pointID(ns, id))
		}
	}
	points = slices.Compact(slices.Sorted(slices.Values(points)))
	if len(points) == 0 {
		return nil
	}
	return s.do(ctx, "delete", http.MethodPost, s.collection("/points/delete?wait=true"), map[string]any{"points": points}, nil)
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// do sends one JSON request with the shared retry policy and decodes the
// "result" field of the response envelope into out.
func (s *Store) do(ctx context.Context, op, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Msg: "encode request", Err: err}
		}
		body = b
	}
	return httpx.Do(ctx, s.log, "qdrant."+op, s.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, s.base+path, bytes.NewReader(body))
		if err != nil {
			return &Error{Op: op, Msg: "build request", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.APIKey != "" {
			req.Header.Set("api-key", s.cfg.APIKey)
		}
		resp, err := s.http.Do(req)
		if err != nil {
			return &Error{Op: op, Msg: "request failed", Err: err}
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &Error{Op: op, Msg: "read response", Err: err}
		}
		var env envelope
		decodeErr := json.Unmarshal(raw, &env)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg := statusMessage(env.Status)
			if msg == "" {
				msg = strings.TrimSpace(string(raw[:min(len(raw), 512)]))
			}
			return &Error{Op: op, Status: resp.StatusCode, Msg: msg}
		}
		if decodeErr != nil {
			return &Error{Op: op, Msg: "decode response", Err: decodeErr}
		}
		if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &Error{Op: op, Msg: "decode result", Err: err}
		}
		return nil
	})
}

// statusMessage extracts the error text from a Qdrant status, which is
// either the string "ok" or {"error": "..."}.
func statusMessage(raw json.RawMessage) string {
	var obj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Error
	}
	return ""
}

func (s *Store) namespace(ns string) string {
	switch {
	case s.cfg.NamespacePrefix == "":
		return ns
	case ns == "":
		return s.cfg.NamespacePrefix
	}
	return s.cfg.NamespacePrefix + ":" + ns
}

func (s *Store) collection(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

func pointID(namespace, id string) string {
	return uuid.NewSHA1(pointSpace, []byte(namespace+"|"+id)).String()
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
