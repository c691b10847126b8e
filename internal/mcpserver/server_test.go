package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragmcp/internal/domain"
	"ragmcp/internal/service"
)

type mockRAG struct {
	lastReq service.QueryRequest
	err     error
}

func (m *mockRAG) Query(_ context.Context, req service.QueryRequest) (domain.RagResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return domain.RagResponse{}, m.err
	}
	return domain.RagResponse{
		Query:          req.Query,
		Answer:         "Paris",
		RetrievedCount: 1,
		Sources:        []domain.SourceReference{{Source: "geo.md", Title: "Geography", Similarity: 0.75, ChunkID: "c1", Excerpt: "Paris is..."}},
	}, nil
}

func (m *mockRAG) Retrieve(_ context.Context, req service.QueryRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SearchResult{{
		Chunk:      domain.Chunk{ID: "c1", Content: "Paris is the capital of France.", Metadata: domain.ChunkMetadata{Source: "geo.md", Title: "Geography"}},
		Similarity: 0.75,
	}}, nil
}

func (m *mockRAG) Stats() service.StoreStats {
	return service.StoreStats{Path: "vector_store.json", Chunks: 4, Embedded: 4, Sources: 2}
}

func TestNewServer(t *testing.T) {
	t.Run("nil service returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingService)
		assert.Nil(t, server)
	})

	t.Run("valid service creates server", func(t *testing.T) {
		server, err := NewServer(&mockRAG{})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and text content", func(t *testing.T) {
		rag := &mockRAG{}
		server, err := NewServer(rag)
		require.NoError(t, err)

		result, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "capital?", TopK: 2, MinSimilarity: 0.1})
		require.NoError(t, err)
		assert.Equal(t, "Paris", output.Answer)
		assert.Equal(t, service.QueryRequest{Query: "capital?", TopK: 2, MinSimilarity: 0.1}, rag.lastReq)
		require.Len(t, result.Content, 1)
		text, ok := result.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "Answer: Paris")
		assert.Contains(t, text.Text, "[1] Geography (0.750)")
	})

	t.Run("returns error on invalid query", func(t *testing.T) {
		server, err := NewServer(&mockRAG{err: domain.ErrInvalidQuery})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits", func(t *testing.T) {
		server, err := NewServer(&mockRAG{})
		require.NoError(t, err)

		result, output, err := server.handleSearch(ctx, nil, QueryInput{Query: "capital"})
		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "c1", output.Results[0].ChunkID)
		assert.Equal(t, "Paris is the capital of France.", output.Results[0].Content)
		require.Len(t, result.Content, 1)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server, err := NewServer(&mockRAG{err: errors.New("store offline")})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, QueryInput{Query: "capital"})
		assert.ErrorContains(t, err, "store offline")
	})
}

func TestServer_handleStatsResource(t *testing.T) {
	server, err := NewServer(&mockRAG{})
	require.NoError(t, err)

	result, err := server.handleStatsResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: statsURI},
	})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, statsURI, result.Contents[0].URI)
	assert.Contains(t, result.Contents[0].Text, `"chunks": 4`)
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&mockRAG{})
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"rag_query", "rag_search"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "rag_query",
		Arguments: map[string]any{"query": "capital?"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Answer: Paris")
}
