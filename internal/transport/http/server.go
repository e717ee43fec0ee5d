// Package http serves the assistant as a small JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/conversation"
	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/pkg/log"
)

const SessionHeader = "X-Session-ID"

type Sessions interface {
	Get(id string) *assistant.Session
	Lookup(id string) (*assistant.Session, bool)
}

type DocumentLibrary interface {
	Documents() []library.Document
	ChunkCount() int
	Ingest(ctx context.Context, name string, data []byte) (library.Document, error)
}

type Server struct {
	engine    *gin.Engine
	server    *http.Server
	sessions  Sessions
	lib       DocumentLibrary
	maxUpload int64
}

func NewServer(ctx context.Context, addr string, sessions Sessions, lib DocumentLibrary, maxUpload int64) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:    engine,
		sessions:  sessions,
		lib:       lib,
		maxUpload: maxUpload,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	engine.Use(gin.Recovery(), requestLogger(ctx))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/documents", s.handleListDocuments)
	api.POST("/documents", s.handleUpload)
	api.GET("/history", s.handleHistory)
	api.DELETE("/history", s.handleClearHistory)
	api.GET("/summary", s.handleSummary)
}

// Handler exposes the routes without a listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve http api: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(ctx context.Context) gin.HandlerFunc {
	logger := log.FromCtx(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type source struct {
	Source  string   `json:"source"`
	ChunkID *int     `json:"chunk_id,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Content string   `json:"content"`
}

type askResponse struct {
	SessionID string   `json:"session_id"`
	Kind      string   `json:"kind"`
	Intent    string   `json:"intent"`
	Path      string   `json:"path"`
	Answer    string   `json:"answer"`
	Sources   []source `json:"sources"`
	Formatted string   `json:"formatted"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "question is required")
		return
	}

	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(SessionHeader, id)

	ctx := c.Request.Context()
	outcome, err := s.sessions.Get(id).Ask(ctx, req.Question)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, assistant.ErrEmptyQuery) {
			status = http.StatusBadRequest
		}
		log.FromCtx(ctx).Error().Err(err).Str("session", id).Msg("failed to answer")
		abort(c, status, assistant.FormatError(err))
		return
	}

	c.JSON(http.StatusOK, newAskResponse(id, outcome))
}

func newAskResponse(id string, outcome core.Outcome) askResponse {
	sources := make([]source, 0, len(outcome.Citations))
	for _, r := range outcome.Citations {
		src := source{Source: r.Metadata.Source(), Score: r.Score, Content: r.Content}
		if chunkID, ok := r.Metadata.ChunkID(); ok {
			src.ChunkID = &chunkID
		}
		sources = append(sources, src)
	}
	return askResponse{
		SessionID: id,
		Kind:      outcome.Kind.String(),
		Intent:    outcome.Intent.String(),
		Path:      string(outcome.Path),
		Answer:    outcome.Text,
		Sources:   sources,
		Formatted: assistant.FormatResponse(outcome),
	}
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs := s.lib.Documents()
	if docs == nil {
		docs = []library.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "chunks": s.lib.ChunkCount()})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+(1<<20))

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, library.ErrFileTooLarge.Error())
			return
		}
		abort(c, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	if header.Size > s.maxUpload {
		abort(c, http.StatusRequestEntityTooLarge, library.ErrFileTooLarge.Error())
		return
	}

	f, err := header.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	doc, err := s.lib.Ingest(ctx, header.Filename, data)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("file", header.Filename).Msg("failed to ingest upload")
		abort(c, uploadStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, library.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, library.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) session(c *gin.Context) (*assistant.Session, bool) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = c.Query("session_id")
	}
	if id == "" {
		abort(c, http.StatusBadRequest, SessionHeader+" header is required")
		return nil, false
	}
	sess, ok := s.sessions.Lookup(id)
	if !ok {
		abort(c, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHistory(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	conv := sess.Conversation()

	format := c.DefaultQuery("format", string(conversation.FormatJSON))
	if format == string(conversation.FormatJSON) {
		c.JSON(http.StatusOK, gin.H{
			"session_id":      sess.ID(),
			"conversation_id": conv.ID(),
			"messages":        conv.History(),
		})
		return
	}

	f, err := conversation.ParseFormat(format)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	out, err := conv.Export(f)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	if f == conversation.FormatYAML {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", []byte(out))
		return
	}
	c.String(http.StatusOK, out)
}

func (s *Server) handleClearHistory(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.Conversation().Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSummary(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Conversation().Summary())
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
