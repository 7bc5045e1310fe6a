package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/antfly/pkg/logger"
)

const (
	contentTypeSSE  = "text/event-stream"
	contentTypeJSON = "application/json"
)

// Server replays one transcript for every POST it receives.
type Server struct {
	config      Config
	body        []byte
	contentType string
	logger      *slog.Logger
	app         *fiber.App
}

// NewServer loads the transcript and builds the server.
func NewServer(config Config, log *slog.Logger) (*Server, error) {
	if config.TranscriptPath == "" {
		return nil, errors.New("transcript path is required")
	}
	if config.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must not be negative, got %d", config.ChunkSize)
	}
	if config.Status == 0 {
		config.Status = fiber.StatusOK
	}
	if log == nil {
		log = logger.Nop()
	}

	body, err := os.ReadFile(config.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:      config,
		body:        body,
		contentType: detectContentType(config.TranscriptPath, body),
		logger:      log,
		app:         app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/*", s.handleReplay)

	return s, nil
}

// detectContentType treats .json files and bodies that are a single JSON
// document as JSON, and everything else as an SSE transcript.
func detectContentType(path string, body []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return contentTypeJSON
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return contentTypeJSON
	}
	return contentTypeSSE
}

// Run starts the replay server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		"listen", s.config.ListenAddr,
		"transcript", s.config.TranscriptPath,
		"content_type", s.contentType,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the replay server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleReplay(c *fiber.Ctx) error {
	s.logger.Debug("replaying transcript",
		"path", c.Path(),
		"bytes", len(s.body),
		"request_id", c.Get("X-Request-ID"),
	)

	c.Status(s.config.Status)
	c.Set(fiber.HeaderContentType, s.contentType)

	if s.contentType != contentTypeSSE || s.config.Status != fiber.StatusOK {
		return c.Send(s.body)
	}

	c.Set(fiber.HeaderCacheControl, "no-cache")

	// Each pw.Write surfaces as one Read of the body stream. With an unknown
	// size fasthttp writes the stream chunked and flushes after every Read,
	// so chunk boundaries and delays reach the client as written.
	pr, pw := io.Pipe()
	go s.writeChunks(pw)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeChunks(pw *io.PipeWriter) {
	defer pw.Close()

	size := s.config.ChunkSize
	if size == 0 {
		size = len(s.body)
	}

	for off := 0; off < len(s.body); off += size {
		if off > 0 && s.config.Delay > 0 {
			time.Sleep(s.config.Delay)
		}
		end := min(off+size, len(s.body))
		if _, err := pw.Write(s.body[off:end]); err != nil {
			s.logger.Debug("client went away during replay", "error", err)
			return
		}
	}
}
