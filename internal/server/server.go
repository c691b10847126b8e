// Package server exposes the RAG service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"ragmcp/internal/config"
	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
	"ragmcp/internal/service"
)

// RAG is the subset of the service the HTTP layer needs.
type RAG interface {
	Query(ctx context.Context, req service.QueryRequest) (domain.RagResponse, error)
	Retrieve(ctx context.Context, req service.QueryRequest) ([]domain.SearchResult, error)
	Stats() service.StoreStats
}

type Server struct {
	rag    RAG
	cfg    config.ServerConfig
	router *gin.Engine
}

func New(rag RAG, cfg config.ServerConfig) *Server {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ragmcp"))

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		router.Use(cors.New(corsConfig))
	}

	s := &Server{rag: rag, cfg: cfg, router: router}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/query", s.handleQuery)
	s.router.POST("/search", s.handleSearch)

	mcp := s.router.Group("/mcp")
	mcp.GET("/tools", s.handleListTools)
	mcp.POST("/call", s.handleCallTool)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.rag.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"chunks":   st.Chunks,
		"embedded": st.Embedded,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req service.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", "Invalid request data", err)
		return
	}
	resp, err := s.rag.Query(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req service.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", "Invalid request data", err)
		return
	}
	results, err := s.rag.Retrieve(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": service.Hits(results)})
}

func badRequest(c *gin.Context, code, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error_code": code,
		"message":    message,
		"details":    gin.H{"error": err.Error()},
	})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error_code": "invalid_query", "message": err.Error()})
		return
	}
	logger.Error("request failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error_code": "internal_error", "message": err.Error()})
}

// numberArg reads a numeric tool argument that may arrive as a JSON number or a string.
func numberArg(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
