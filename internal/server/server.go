// Package server exposes the tutor pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"duet/internal/chatapi"
	"duet/internal/tutor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tutor is the pipeline the handlers drive.
type Tutor interface {
	Ask(ctx context.Context, question string) (tutor.Turn, error)
	History() []tutor.Turn
	Reload(maxPages int) error
	Stats() tutor.Stats
}

// Config configures the HTTP server.
type Config struct {
	Addr            string
	StaticDir       string
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	tutor  Tutor
	logger *zap.Logger
	engine *gin.Engine
}

// NewServer builds the router. Handlers are registered immediately so the
// server can be exercised with httptest before Run.
func NewServer(cfg Config, t Tutor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{cfg: cfg, tutor: t, logger: logger}

	engine := gin.New()
	engine.Use(requestID(), accessLog(logger), gin.Recovery())

	engine.GET("/healthz", s.Health)
	api := engine.Group("/api")
	{
		api.POST("/chat", s.Chat)
		api.GET("/history", s.History)
		api.POST("/knowledge/reload", s.ReloadKnowledge)
	}
	s.mountStatic(engine)

	s.engine = engine
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// mountStatic serves the configured static directory: index.html at / and
// everything else under /static.
func (s *Server) mountStatic(engine *gin.Engine) {
	dir := s.cfg.StaticDir
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory unavailable", zap.String("dir", dir), zap.Error(err))
		return
	}
	engine.Static("/static", dir)
	index := filepath.Join(dir, "index.html")
	engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Health handles GET /healthz.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"knowledge": s.tutor.Stats(),
	})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(c *gin.Context) {
	var req chatapi.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatapi.ErrorBody{Detail: err.Error()})
		return
	}

	turn, err := s.tutor.Ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, tutor.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, chatapi.ErrorBody{Detail: "Message cannot be empty"})
			return
		}
		s.logger.Error("chat failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, chatapi.ErrorBody{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, chatapi.Response{
		Question: turn.Question,
		Answer:   turn.Answer,
		Check:    turn.Check,
	})
}

// History handles GET /api/history.
func (s *Server) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": s.tutor.History()})
}

// ReloadRequest is the body of POST /api/knowledge/reload.
type ReloadRequest struct {
	MaxPages int `json:"max_pages"`
}

// ReloadKnowledge handles POST /api/knowledge/reload.
func (s *Server) ReloadKnowledge(c *gin.Context) {
	var req ReloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatapi.ErrorBody{Detail: err.Error()})
		return
	}

	if err := s.tutor.Reload(req.MaxPages); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tutor.ErrInvalidPages) {
			status = http.StatusBadRequest
		}
		c.JSON(status, chatapi.ErrorBody{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledge": s.tutor.Stats()})
}
