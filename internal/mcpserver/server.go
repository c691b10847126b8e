// Package mcpserver exposes the RAG service as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
	"ragmcp/internal/service"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingService is returned when no RAG service is provided.
var ErrMissingService = errors.New("mcpserver: rag service is required")

// RAG is the subset of the service exposed as tools.
type RAG interface {
	Query(ctx context.Context, req service.QueryRequest) (domain.RagResponse, error)
	Retrieve(ctx context.Context, req service.QueryRequest) ([]domain.SearchResult, error)
	Stats() service.StoreStats
}

type Server struct {
	rag    RAG
	server *mcp.Server
}

func NewServer(rag RAG) (*Server, error) {
	if rag == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		rag:    rag,
		server: mcp.NewServer(&mcp.Implementation{Name: "ragmcp", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp http shutdown", "err", err)
		}
	}()

	logger.Info("mcp server listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
