// Package antfly is a Go client for the antfly search and RAG API. Streaming
// endpoints are consumed through pkg/stream and delivered to typed callback
// tables; when the server answers with plain JSON the call returns the
// decoded result synchronously instead.
package antfly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/antfly/pkg/logger"
	"github.com/papercomputeco/antfly/pkg/stream"
	"github.com/papercomputeco/antfly/pkg/utils"
)

const (
	contentTypeJSON = "application/json"
	contentTypeSSE  = "text/event-stream"

	// RequestIDHeader carries the per-request id for correlating server logs
	// and published stream events.
	RequestIDHeader = "X-Request-ID"

	answerAgentPath = "/agents/answer"
	chatAgentPath   = "/agents/chat"
	ragPath         = "/rag"

	maxLoggedBody = 512
)

// Config is the client configuration.
type Config struct {
	// BaseURL is the API root including any version prefix
	// (e.g. "http://localhost:8080/api/v1").
	BaseURL string

	// Timeout bounds connecting and receiving response headers. Streams
	// themselves are bounded only by the caller's context.
	Timeout time.Duration
}

// Client issues requests against one antfly deployment. Construct one per
// logical session and pass it to the code that needs it.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
	streamOpts []stream.Option
	observers  []func(RequestInfo) stream.Observer
}

// RequestInfo identifies one request issued by a Client.
type RequestInfo struct {
	// ID is the value sent in RequestIDHeader.
	ID string

	// Endpoint is the full request URL.
	Endpoint string

	// Table is the RAG table, empty for other endpoints.
	Table string
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", u.Scheme)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Timeout > 0 {
		transport.ResponseHeaderTimeout = cfg.Timeout
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Transport: transport},
		headers:    http.Header{},
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AnswerAgent runs the answer agent. Exactly one of the returned result and
// handle is non-nil on success: a result when the server answered with JSON
// (no callback is invoked), a handle when it streamed. A nil cb asks the
// server for a JSON answer.
func (c *Client) AnswerAgent(ctx context.Context, req AnswerAgentRequest, cb *AnswerAgentCallbacks) (*AnswerAgentResult, *stream.Handle, error) {
	req.WithStreaming = cb.streaming()
	return perform[AnswerAgentResult](ctx, c, answerAgentPath, "", req, cb)
}

// RAG runs retrieval augmented generation against table, or across tables
// when table is empty.
func (c *Client) RAG(ctx context.Context, table string, req RAGRequest, cb *RAGCallbacks) (*RAGResult, *stream.Handle, error) {
	path := ragPath
	if table != "" {
		path = "/tables/" + url.PathEscape(table) + ragPath
	}

	req.WithStreaming = cb.streaming()
	return perform[RAGResult](ctx, c, path, table, req, cb)
}

// ChatAgent runs one turn of the chat agent.
func (c *Client) ChatAgent(ctx context.Context, req ChatAgentRequest, cb *ChatAgentCallbacks) (*ChatAgentResult, *stream.Handle, error) {
	req.WithStreaming = cb.streaming()
	return perform[ChatAgentResult](ctx, c, chatAgentPath, "", req, cb)
}

// perform POSTs body to path and either decodes a JSON result or starts a
// stream driving d.
func perform[T any](ctx context.Context, c *Client, path, table string, body any, d stream.Dispatcher) (*T, *stream.Handle, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling request: %w", err)
	}

	// The stream outlives this call, so it gets its own cancellable context.
	// It is cancelled here on every path that does not hand it to a stream.
	reqCtx, cancel := context.WithCancel(ctx)
	handedOff := false
	defer func() {
		if !handedOff {
			cancel()
		}
	}()

	requestID := uuid.NewString()
	endpoint := c.baseURL.JoinPath(path).String()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeSSE+", "+contentTypeJSON)
	httpReq.Header.Set(RequestIDHeader, requestID)

	log := c.logger.With("request_id", requestID, "path", path)
	log.Debug("sending antfly request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("antfly returned error",
			"status", resp.StatusCode,
			"body", utils.Truncate(string(respBody), maxLoggedBody),
		)
		return nil, nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrNoBody}
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		log.Debug("streaming antfly response")
		opts := append([]stream.Option{stream.WithLogger(log)}, c.streamOpts...)
		info := RequestInfo{ID: requestID, Endpoint: endpoint, Table: table}
		for _, f := range c.observers {
			opts = append(opts, stream.WithObserver(f(info)))
		}
		h := stream.Start(reqCtx, resp.Body, d, opts...)
		handedOff = true
		go func() {
			<-h.Done()
			cancel()
		}()
		return nil, h, nil
	}

	defer resp.Body.Close()
	var result T
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrNoBody}
		}
		return nil, nil, fmt.Errorf("decoding response: %w", err)
	}
	log.Debug("received antfly JSON response")

	return &result, nil, nil
}

// isJSON reports whether a Content-Type header names a JSON document. Every
// other response, including one without a Content-Type, is read as an SSE
// stream.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
