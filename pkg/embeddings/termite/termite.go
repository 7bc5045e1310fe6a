// Package termite implements pkg/embeddings' Embedder for the Termite
// embedding service. Batches come back in the binary vector envelope when
// the server supports it and as JSON otherwise.
package termite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/antfly/pkg/embeddings"
	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/vector"
	"github.com/papercomputeco/antfly/pkg/vectorcodec"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "BAAI/bge-small-en-v1.5"

	// DefaultBaseURL is the default Termite API URL.
	DefaultBaseURL = "http://localhost:11433"

	embedPath = "/api/embed"
)

// Embedder wraps Termite's embedding API.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// EmbedderConfig holds configuration for the Termite embedder.
type EmbedderConfig struct {
	// BaseURL is the Termite API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use. Defaults to DefaultEmbeddingModel
	// if empty.
	Model string

	// Timeout bounds a whole embedding request. Defaults to two minutes.
	Timeout time.Duration
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates a new embedder for Termite's embedding API.
func NewEmbedder(cfg EmbedderConfig, log *slog.Logger) (*Embedder, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return m[0], nil
}

// EmbedBatch embeds texts in a single request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) (vectorcodec.Matrix, error) {
	if len(texts) == 0 {
		return vectorcodec.Matrix{}, nil
	}

	jsonBody, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", vector.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+embedPath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", vector.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", vectorcodec.ContentType+", application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", vector.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: termite returned status %d: %s", vector.ErrEmbedding, resp.StatusCode, string(body))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	var m vectorcodec.Matrix
	switch mediaType {
	case vectorcodec.ContentType:
		m, err = vectorcodec.NewDecoder(resp.Body).Decode()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding binary response: %w", vector.ErrEmbedding, err)
		}
	default:
		var embedResp embedResponse
		if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", vector.ErrEmbedding, err)
		}
		m = vectorcodec.Matrix(embedResp.Embeddings)
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", vector.ErrEmbedding, err)
		}
	}

	if m.Len() != len(texts) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", vector.ErrEmbedding, len(texts), m.Len())
	}

	e.logger.Debug("embedded texts",
		"count", m.Len(),
		"dimensions", m.Dim(),
		"content_type", mediaType,
	)

	return m, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

var _ embeddings.BatchEmbedder = (*Embedder)(nil)
