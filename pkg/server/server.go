package server

import (
	"context"
	"net/http"
	"time"

	"github.com/duynguyendang/askdb/pkg/assistant"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Service is the conversation surface exposed over HTTP.
type Service interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	Clear()
	History() assistant.History
	Schema() string
}

// Server holds the state for the REST API server.
type Server struct {
	svc    Service
	router *gin.Engine
	logger zerolog.Logger
}

// NewServer creates a new Server instance.
func NewServer(svc Service, logger zerolog.Logger) *Server {
	r := gin.New()
	s := &Server{
		svc:    svc,
		router: r,
		logger: logger.With().Str("component", "http").Logger(),
	}
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/ask", s.handleAsk)
	s.router.POST("/v1/clear", s.handleClear)
	s.router.GET("/v1/history", s.handleHistory)
	s.router.GET("/v1/schema", s.handleSchema)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
